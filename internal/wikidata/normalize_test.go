// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package wikidata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kgpath-dev/kgpath/internal/wikidata"
)

func TestTrimResource(t *testing.T) {
	assert.Equal(t, "Q42", wikidata.TrimResource("http://www.wikidata.org/entity/Q42"))
	assert.Equal(t, "P31", wikidata.TrimResource("http://www.wikidata.org/prop/direct/P31"))
	assert.Equal(t, "Q42", wikidata.TrimResource("Q42"))
	assert.Equal(t, "", wikidata.TrimResource("http://www.wikidata.org/entity/"))
}

func TestNormalizeEntityStripsStatementSuffix(t *testing.T) {
	assert.Equal(t, "QX",
		wikidata.NormalizeEntity("http://www.wikidata.org/entity/statement/Qx-1ab2c3d4-5e6f"))
	assert.Equal(t, "Q42", wikidata.NormalizeEntity("http://www.wikidata.org/entity/Q42"))
}

func TestNormalizeEntityUppercases(t *testing.T) {
	assert.Equal(t, "Q99", wikidata.NormalizeEntity("q99"))
	assert.Equal(t, "Q7", wikidata.NormalizeEntity("http://www.wikidata.org/entity/q7-abc"))
}
