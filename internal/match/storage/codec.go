// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/contribmatch/contribmatch/internal/match/trainer"
)

// storedArtifact is the on-disk envelope for a model artifact: gob-encoded,
// gzip-compressed, with a SHA-256 checksum for integrity verification.
type storedArtifact struct {
	Checksum       string
	CompressedData []byte
}

// encodeArtifact serializes an artifact into the storage envelope.
func encodeArtifact(a *trainer.Artifact) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(a); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	env := storedArtifact{
		Checksum:       hex.EncodeToString(hash[:]),
		CompressedData: compressed.Bytes(),
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(env); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out.Bytes(), nil
}

// decodeArtifact deserializes and integrity-checks a stored artifact.
func decodeArtifact(data []byte) (*trainer.Artifact, error) {
	var env storedArtifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress artifact: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close after full read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed artifact: %w", err)
	}

	hash := sha256.Sum256(raw)
	if hex.EncodeToString(hash[:]) != env.Checksum {
		return nil, fmt.Errorf("artifact checksum mismatch")
	}

	var a trainer.Artifact
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}

// Register concrete classifier types so gob can round-trip the Classifier
// interface field.
//
//nolint:gochecknoinits // gob.Register must run before any encode/decode
func init() {
	gob.Register(&trainer.GBDT{})
	gob.Register(&trainer.RandomForest{})
	gob.Register(&trainer.StackingModel{})
	gob.Register(storedArtifact{})
}
