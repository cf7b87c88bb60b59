// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"INFO", zerolog.InfoLevel},
		{" debug ", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Str("owner", "alice").Msg("scoring complete")

	out := buf.String()
	if !strings.Contains(out, `"owner":"alice"`) {
		t.Errorf("output missing field: %s", out)
	}
	if !strings.Contains(out, `"message":"scoring complete"`) {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("output missing level: %s", out)
	}
}

func TestLevelHelpersEmit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "trace", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Trace().Msg("trace line")
	Debug().Msg("debug line")
	Info().Msg("info line")
	Warn().Msg("warn line")
	Error().Msg("error line")

	out := buf.String()
	for _, want := range []string{"trace line", "debug line", "info line", "warn line", "error line"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Debug().Msg("suppressed")
	Info().Msg("suppressed")
	Warn().Msg("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("below-level events were emitted: %s", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("warn event missing: %s", out)
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	logger := Component("trainer")
	logger.Info().Msg("run complete")

	if !strings.Contains(buf.String(), `"component":"trainer"`) {
		t.Errorf("output missing component field: %s", buf.String())
	}
}

func TestConsoleFormatInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Msg("console line")

	if !strings.Contains(buf.String(), "console line") {
		t.Errorf("console output missing message: %s", buf.String())
	}
}
