// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/kgpath-dev/kgpath/internal/wikidata"
	kgerr "github.com/kgpath-dev/kgpath/pkg/errors"
)

// noRelation is written for a pair whose query found no direct relation,
// and as the one-hop fallback when a relation code is missing from the
// resolved label map.
const noRelation = "No Relation"

// PathQuerier is the path-discovery dependency of the driver.
type PathQuerier interface {
	QueryPaths(ctx context.Context, mode wikidata.Mode, pairs []wikidata.Pair) ([]wikidata.Binding, error)
}

// LabelResolver is the label-lookup dependency of the driver.
type LabelResolver interface {
	Resolve(ctx context.Context, codes []string) (map[string]string, error)
}

// DriverConfig controls request granularity and output handling.
type DriverConfig struct {
	Mode wikidata.Mode
	// PairBatchSize is the number of pairs bound per path query.
	// Defaults to 120 for one-hop and 10 for four-hop.
	PairBatchSize int
	// LabelBatchSize is the number of codes per label lookup, capped at
	// the service limit. Defaults to 40 for one-hop and 10 for four-hop.
	LabelBatchSize int
	// Truncate clears the output artifact before the run. The default is
	// append: re-running over the same input duplicates records.
	Truncate bool
	Logger   *slog.Logger
}

// Driver runs the enrichment pipeline strictly sequentially: each pair
// batch is queried, aggregated, label-resolved, and written before the
// next begins.
type Driver struct {
	mode       wikidata.Mode
	paths      PathQuerier
	labels     LabelResolver
	pairBatch  int
	labelBatch int
	truncate   bool
	logger     *slog.Logger
}

// NewDriver creates a Driver with per-mode batch size defaults applied.
func NewDriver(paths PathQuerier, labels LabelResolver, cfg DriverConfig) *Driver {
	mode := cfg.Mode
	if mode == "" {
		mode = wikidata.ModeOneHop
	}
	pairBatch := cfg.PairBatchSize
	if pairBatch <= 0 {
		if mode == wikidata.ModeFourHop {
			pairBatch = 10
		} else {
			pairBatch = 120
		}
	}
	labelBatch := cfg.LabelBatchSize
	if labelBatch <= 0 {
		if mode == wikidata.ModeFourHop {
			labelBatch = 10
		} else {
			labelBatch = 40
		}
	}
	if labelBatch > wikidata.MaxLabelBatch {
		labelBatch = wikidata.MaxLabelBatch
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		mode:       mode,
		paths:      paths,
		labels:     labels,
		pairBatch:  pairBatch,
		labelBatch: labelBatch,
		truncate:   cfg.Truncate,
		logger:     logger,
	}
}

// Run enriches every pair in inputPath and appends the records to
// outputPath. Remote failures skip the affected batch; only file I/O and
// context cancellation abort the run.
func (d *Driver) Run(ctx context.Context, inputPath, outputPath string) error {
	log := d.logger.With("run_id", uuid.NewString(), "mode", string(d.mode))

	pairs, err := readPairs(inputPath, log)
	if err != nil {
		return err
	}

	if d.truncate {
		if err := os.Truncate(outputPath, 0); err != nil && !os.IsNotExist(err) {
			return kgerr.Wrap(err, kgerr.CodePipelineOutputOpenFailure,
				"truncating output", kgerr.FieldPath(outputPath))
		}
	}

	totalBatches := (len(pairs) + d.pairBatch - 1) / d.pairBatch
	log.Info("starting run", "pairs", len(pairs), "batches", totalBatches)

	for i := 0; i < len(pairs); i += d.pairBatch {
		end := min(i+d.pairBatch, len(pairs))
		batch := pairs[i:end]
		batchNum := i/d.pairBatch + 1
		log.Info("processing pair batch", "batch", batchNum, "total", totalBatches, "pairs", len(batch))

		bindings, err := d.paths.QueryPaths(ctx, d.mode, batch)
		if err != nil {
			return err
		}
		if bindings == nil {
			log.Warn("path query failed, skipping batch", "batch", batchNum)
			continue
		}

		agg := Aggregate(d.mode, bindings)

		relationLabels, err := d.resolveAll(ctx, log, "relation", agg.Relations)
		if err != nil {
			return err
		}
		entityLabels, err := d.resolveAll(ctx, log, "entity", agg.Entities)
		if err != nil {
			return err
		}

		if err := d.writeBatch(outputPath, batch, agg, relationLabels, entityLabels); err != nil {
			return kgerr.With(err, kgerr.FieldBatch(batchNum))
		}
	}

	log.Info("run complete")
	return nil
}

// resolveAll splits the deduplicated code set into label-service-sized
// sub-batches and merges the resolved maps. Every input code is present in
// the result; the resolver guarantees identity fallback.
func (d *Driver) resolveAll(ctx context.Context, log *slog.Logger, kind string, codes []string) (map[string]string, error) {
	labels := make(map[string]string, len(codes))
	total := (len(codes) + d.labelBatch - 1) / d.labelBatch
	for i := 0; i < len(codes); i += d.labelBatch {
		end := min(i+d.labelBatch, len(codes))
		log.Info("fetching labels batch", "kind", kind, "batch", i/d.labelBatch+1, "total", total)
		resolved, err := d.labels.Resolve(ctx, codes[i:end])
		if err != nil {
			return nil, err
		}
		maps.Copy(labels, resolved)
	}
	return labels, nil
}

// writeBatch appends one record per path to the output artifact. The file
// is opened in append mode for each batch and each line is written whole,
// so an interrupted run leaves only complete records behind.
func (d *Driver) writeBatch(outputPath string, batch []wikidata.Pair, agg *Aggregation, relationLabels, entityLabels map[string]string) error {
	f, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return kgerr.Wrap(err, kgerr.CodePipelineOutputOpenFailure,
			"opening output", kgerr.FieldPath(outputPath))
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	if d.mode == wikidata.ModeFourHop {
		writeFourHop(w, agg, relationLabels, entityLabels)
	} else {
		writeOneHop(w, batch, agg, relationLabels)
	}
	if err := w.Flush(); err != nil {
		return kgerr.Wrap(err, kgerr.CodePipelineOutputWriteFailure,
			"writing records", kgerr.FieldPath(outputPath))
	}
	return nil
}

// writeOneHop emits one line per input pair of the batch: discovered
// relation labels joined by "$", or "No Relation" for a pair the query
// found nothing for.
func writeOneHop(w *bufio.Writer, batch []wikidata.Pair, agg *Aggregation, relationLabels map[string]string) {
	for _, pair := range batch {
		paths := agg.Paths[pair]
		if len(paths) == 0 {
			fmt.Fprintf(w, "%s#%s\t%s\n", pair.Source, pair.Target, noRelation)
			continue
		}
		labels := make([]string, 0, len(paths))
		for _, path := range paths {
			labels = append(labels, labelOr(relationLabels, path[0], noRelation))
		}
		fmt.Fprintf(w, "%s#%s\t%s\n", pair.Source, pair.Target, strings.Join(labels, "$"))
	}
}

// writeFourHop emits one line per discovered path in first-seen pair
// order, with every code replaced by its label.
func writeFourHop(w *bufio.Writer, agg *Aggregation, relationLabels, entityLabels map[string]string) {
	for _, pair := range agg.Order {
		for _, path := range agg.Paths[pair] {
			parts := make([]string, len(path))
			for i, code := range path {
				if i%2 == 0 {
					parts[i] = labelOr(relationLabels, code, code)
				} else {
					parts[i] = labelOr(entityLabels, code, code)
				}
			}
			fmt.Fprintf(w, "%s#%s\t%s\n", pair.Source, pair.Target, strings.Join(parts, "#"))
		}
	}
}

// labelOr looks up a code with a defensive fallback. The resolver already
// guarantees an entry per requested code, so the fallback only fires if a
// code never reached resolution.
func labelOr(labels map[string]string, code, fallback string) string {
	if label, ok := labels[code]; ok {
		return label
	}
	return fallback
}

// readPairs loads the tab-separated entity pair list. Lines without
// exactly two non-empty columns are skipped with a warning.
func readPairs(path string, log *slog.Logger) ([]wikidata.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kgerr.Wrap(err, kgerr.CodePipelineInputReadFailure,
			"opening pair list", kgerr.FieldPath(path))
	}
	defer func() { _ = f.Close() }()

	var pairs []wikidata.Pair
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			log.Warn("skipping malformed input line", "line", lineNum, "columns", len(fields))
			continue
		}
		source := strings.TrimSpace(fields[0])
		target := strings.TrimSpace(fields[1])
		if source == "" || target == "" {
			log.Warn("skipping malformed input line", "line", lineNum, "columns", len(fields))
			continue
		}
		pairs = append(pairs, wikidata.Pair{Source: source, Target: target})
	}
	if err := scanner.Err(); err != nil {
		return nil, kgerr.Wrap(err, kgerr.CodePipelineInputReadFailure,
			"reading pair list", kgerr.FieldPath(path))
	}
	return pairs, nil
}
