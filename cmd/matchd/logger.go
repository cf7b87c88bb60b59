// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package main

import (
	"strings"

	"github.com/rs/zerolog"
)

// badgerLogger routes BadgerDB's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}
