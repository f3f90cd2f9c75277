// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

// Package pipeline drives the batch enrichment run: partitioning entity
// pairs, querying connecting paths, resolving labels, and appending
// delimited records to the output artifact.
package pipeline

import (
	"github.com/kgpath-dev/kgpath/internal/wikidata"
)

// Path is one discovered path between an entity pair: alternating relation
// and intermediate-entity codes, relation first. One element for a direct
// hop, seven for the four-hop chain.
type Path []string

// fourHopVars lists the result variables of the four-hop query in path
// order. Odd positions are intermediate entities.
var fourHopVars = []string{"relation1", "x", "relation2", "y", "relation3", "z", "relation4"}

// Aggregation groups discovered paths by entity pair, preserving first-seen
// pair order and path multiplicity, and carries the deduplicated relation
// and entity code sets that need label resolution.
type Aggregation struct {
	Order []wikidata.Pair
	Paths map[wikidata.Pair][]Path

	// Relations and Entities are deduplicated, in first-seen order.
	Relations []string
	Entities  []string
}

// Aggregate converts raw query bindings into an Aggregation. Identifiers
// are normalized here so every downstream stage sees bare codes: relation
// and endpoint values keep their trailing URI segment, intermediate
// entities additionally lose their statement suffix and are uppercased.
// Duplicate paths for a pair are kept; only the code sets are deduplicated.
func Aggregate(mode wikidata.Mode, bindings []wikidata.Binding) *Aggregation {
	agg := &Aggregation{
		Paths: make(map[wikidata.Pair][]Path),
	}
	seenRelations := make(map[string]bool)
	seenEntities := make(map[string]bool)

	addRelation := func(code string) {
		if code != "" && !seenRelations[code] {
			seenRelations[code] = true
			agg.Relations = append(agg.Relations, code)
		}
	}
	addEntity := func(code string) {
		if code != "" && !seenEntities[code] {
			seenEntities[code] = true
			agg.Entities = append(agg.Entities, code)
		}
	}

	for _, b := range bindings {
		pair := wikidata.Pair{
			Source: wikidata.TrimResource(b["entity1"]),
			Target: wikidata.TrimResource(b["entity2"]),
		}

		var path Path
		switch mode {
		case wikidata.ModeFourHop:
			path = make(Path, 0, len(fourHopVars))
			for i, name := range fourHopVars {
				if i%2 == 0 {
					code := wikidata.TrimResource(b[name])
					path = append(path, code)
					addRelation(code)
				} else {
					code := wikidata.NormalizeEntity(b[name])
					path = append(path, code)
					addEntity(code)
				}
			}
		default:
			code := wikidata.TrimResource(b["property"])
			path = Path{code}
			addRelation(code)
		}

		if _, ok := agg.Paths[pair]; !ok {
			agg.Order = append(agg.Order, pair)
		}
		agg.Paths[pair] = append(agg.Paths[pair], path)
	}

	return agg
}
