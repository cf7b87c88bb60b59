// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package features

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// HTTPProvider calls a sentence-embedding HTTP service. It implements
// EmbeddingProvider and is typically wrapped in a ResilientProvider.
type HTTPProvider struct {
	url    string
	model  string
	client *http.Client
}

// NewHTTPProvider creates a provider for the embedding service at url.
// Request timeouts are enforced by the caller's context, not the client.
func NewHTTPProvider(url, model string) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		model:  model,
		client: &http.Client{},
	}
}

// ModelName returns the configured embedding model name.
func (p *HTTPProvider) ModelName() string {
	return p.model
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed requests an embedding for the given text.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() //nolint:errcheck // close after full read is not actionable

	if resp.StatusCode != http.StatusOK {
		// Drain for connection reuse; the status is the error.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embed request: unexpected status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embed response carried no embedding")
	}
	return out.Embedding, nil
}

var _ EmbeddingProvider = (*HTTPProvider)(nil)
