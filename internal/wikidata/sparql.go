// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Mode selects the path shape queried for each entity pair.
type Mode string

const (
	// ModeOneHop finds direct predicates connecting the pair.
	ModeOneHop Mode = "onehop"
	// ModeFourHop finds four-edge chains through three intermediate
	// entities, collapsed to one representative path per pair.
	ModeFourHop Mode = "fourhop"
)

// Pair is an ordered pair of entity identifiers whose connecting
// relations are being discovered.
type Pair struct {
	Source string
	Target string
}

// Binding maps a SPARQL result variable to its raw resource URI.
type Binding map[string]string

// Waiter gates outbound requests. *rate.Limiter satisfies it; tests
// substitute a no-op.
type Waiter interface {
	Wait(ctx context.Context) error
}

// newIntervalLimiter builds a token bucket allowing one request per
// interval with no burst beyond the first.
func newIntervalLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

const (
	defaultSPARQLEndpoint = "https://query.wikidata.org/sparql"
	defaultUserAgent      = "kgpath/0.1 (https://github.com/kgpath-dev/kgpath)"
	defaultInterval       = 1500 * time.Millisecond
	defaultBackoff        = 5 * time.Second
	defaultHTTPTimeout    = 60 * time.Second
)

// PathClientConfig configures a PathClient. Zero values fall back to the
// public Wikidata endpoint and its documented rate expectations.
type PathClientConfig struct {
	Endpoint  string
	UserAgent string
	// RequestInterval is the minimum spacing between queries. Ignored
	// when Limiter is set.
	RequestInterval time.Duration
	// FailureBackoff is how long the client pauses after a failed query
	// before handing the nil result back. Negative disables the pause.
	FailureBackoff time.Duration
	HTTPClient     *http.Client
	Limiter        Waiter
	Logger         *slog.Logger
}

// PathClient issues VALUES-batched path queries against a SPARQL endpoint.
// Remote failures are absorbed: the caller sees a nil binding list and
// decides to skip the batch.
type PathClient struct {
	endpoint  string
	userAgent string
	backoff   time.Duration
	http      *http.Client
	limiter   Waiter
	logger    *slog.Logger
}

// NewPathClient creates a PathClient with defaults applied.
func NewPathClient(cfg PathClientConfig) *PathClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultSPARQLEndpoint
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
	backoff := cfg.FailureBackoff
	if backoff == 0 {
		backoff = defaultBackoff
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PathClient{
		endpoint:  endpoint,
		userAgent: userAgent,
		backoff:   backoff,
		http:      client,
		limiter:   limiter,
		logger:    logger,
	}
}

// QueryPaths runs one path query for the given batch of pairs and returns
// the raw result bindings. A nil, nil return means the query failed and the
// batch should be skipped; the error is non-nil only when the context ends.
func (c *PathClient) QueryPaths(ctx context.Context, mode Mode, pairs []Pair) ([]Binding, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := buildPathQuery(mode, pairs)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		c.logger.Error("building sparql request", "error", err)
		return nil, nil
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("format", "json")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("sparql request failed", "error", err, "pairs", len(pairs))
		c.pause(ctx)
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("sparql endpoint returned non-OK status",
			"status", resp.StatusCode, "pairs", len(pairs))
		c.pause(ctx)
		return nil, nil
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Warn("malformed sparql response", "error", err, "pairs", len(pairs))
		return nil, nil
	}

	bindings := make([]Binding, 0, len(parsed.Results.Bindings))
	for _, raw := range parsed.Results.Bindings {
		b := make(Binding, len(raw))
		for name, v := range raw {
			b[name] = v.Value
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// buildPathQuery renders the fixed query template for the mode with the
// batch of pairs bound through a VALUES clause.
func buildPathQuery(mode Mode, pairs []Pair) string {
	var values strings.Builder
	for i, p := range pairs {
		if i > 0 {
			values.WriteByte(' ')
		}
		fmt.Fprintf(&values, "(wd:%s wd:%s)", strings.TrimSpace(p.Source), strings.TrimSpace(p.Target))
	}

	if mode == ModeFourHop {
		return fmt.Sprintf(`SELECT ?entity1 ?entity2
    (SAMPLE(?relation1) AS ?relation1) (SAMPLE(?x) AS ?x)
    (SAMPLE(?relation2) AS ?relation2) (SAMPLE(?y) AS ?y)
    (SAMPLE(?relation3) AS ?relation3) (SAMPLE(?z) AS ?z)
    (SAMPLE(?relation4) AS ?relation4)
WHERE {
    VALUES (?entity1 ?entity2) {
        %s
    }
    ?entity1 ?relation1 ?x.
    ?x ?relation2 ?y.
    ?y ?relation3 ?z.
    ?z ?relation4 ?entity2.
}
GROUP BY ?entity1 ?entity2`, values.String())
	}

	return fmt.Sprintf(`SELECT ?entity1 ?entity2 ?property
WHERE {
    VALUES (?entity1 ?entity2) {
        %s
    }
    ?entity1 ?property ?entity2.
}`, values.String())
}

// pause holds the goroutine for the failure backoff, honoring cancellation.
func (c *PathClient) pause(ctx context.Context) {
	if c.backoff <= 0 {
		return
	}
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
