// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

// Package wikidata provides clients for the Wikidata SPARQL and entity APIs
// and the identifier normalization shared between them.
package wikidata

import "strings"

// TrimResource returns the trailing path segment of a fully-qualified
// resource URI. A value without a slash is returned unchanged.
func TrimResource(value string) string {
	if idx := strings.LastIndex(value, "/"); idx >= 0 {
		return value[idx+1:]
	}
	return value
}

// NormalizeEntity extracts the entity identifier from a resource URI.
// Statement nodes carry a "-<hash>" suffix after the entity id; only the
// portion before the first dash is kept, uppercased. Downstream consumers
// depend on this exact shape, so both hop variants must share it.
func NormalizeEntity(value string) string {
	id := TrimResource(value)
	if idx := strings.Index(id, "-"); idx >= 0 {
		id = id[:idx]
	}
	return strings.ToUpper(id)
}
