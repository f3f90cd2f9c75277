// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package wikidata

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultLabelsEndpoint = "https://www.wikidata.org/w/api.php"

// MaxLabelBatch is the wbgetentities per-request id cap.
const MaxLabelBatch = 50

// ResolverConfig configures a Resolver. Zero values fall back to the
// public Wikidata API.
type ResolverConfig struct {
	Endpoint  string
	UserAgent string
	// RequestInterval is the minimum spacing between lookups. Ignored
	// when Limiter is set.
	RequestInterval time.Duration
	HTTPClient      *http.Client
	Limiter         Waiter
	Logger          *slog.Logger
}

// Resolver resolves identifier codes to English display labels through the
// wbgetentities API. Every requested code ends up with a value: when the
// service has no label (or fails outright), the code resolves to itself.
type Resolver struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   Waiter
	logger    *slog.Logger
}

// NewResolver creates a Resolver with defaults applied.
func NewResolver(cfg ResolverConfig) *Resolver {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultLabelsEndpoint
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	interval := cfg.RequestInterval
	if interval <= 0 {
		interval = defaultInterval
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = newIntervalLimiter(interval)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		endpoint:  endpoint,
		userAgent: userAgent,
		http:      client,
		limiter:   limiter,
		logger:    logger,
	}
}

// Resolve issues one lookup for the given batch of codes. The caller is
// responsible for deduplication and for keeping batches within
// MaxLabelBatch. The returned map has exactly one entry per input code.
// An empty batch short-circuits without a network call.
func (r *Resolver) Resolve(ctx context.Context, codes []string) (map[string]string, error) {
	labels := make(map[string]string, len(codes))
	if len(codes) == 0 {
		return labels, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		r.logger.Error("building label lookup request", "error", err)
		return identityLabels(codes), nil
	}
	q := url.Values{}
	q.Set("action", "wbgetentities")
	q.Set("ids", strings.Join(codes, "|"))
	q.Set("format", "json")
	q.Set("props", "labels")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Error("label lookup request failed", "error", err, "ids", len(codes))
		return identityLabels(codes), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("label lookup returned non-OK status",
			"status", resp.StatusCode, "ids", len(codes))
		return identityLabels(codes), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.logger.Error("reading label lookup response", "error", err, "ids", len(codes))
		return identityLabels(codes), nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		r.logger.Warn("empty label lookup response", "ids", len(codes))
		return identityLabels(codes), nil
	}

	var parsed entitiesResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Entities == nil {
		r.logger.Warn("label lookup response missing entities", "error", err, "ids", len(codes))
		return identityLabels(codes), nil
	}

	for _, code := range codes {
		labels[code] = code
		entity, ok := parsed.Entities[code]
		if !ok {
			continue
		}
		if en, ok := entity.Labels["en"]; ok && en.Value != "" {
			labels[code] = en.Value
		}
	}
	return labels, nil
}

type entitiesResponse struct {
	Entities map[string]entityLabels `json:"entities"`
}

type entityLabels struct {
	Labels map[string]labelValue `json:"labels"`
}

type labelValue struct {
	Value string `json:"value"`
}

func identityLabels(codes []string) map[string]string {
	labels := make(map[string]string, len(codes))
	for _, code := range codes {
		labels[code] = code
	}
	return labels
}
