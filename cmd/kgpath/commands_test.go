// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper isolates the global viper between command tests.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestRootCommand_AllSubcommands(t *testing.T) {
	resetViper(t)
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"--help"})

	err := root.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "enrich")
	assert.Contains(t, output, "version")
}

func TestVersionCommand(t *testing.T) {
	resetViper(t)
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"version"})

	err := root.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "kgpath")
}

func TestEnrichCommand_Help(t *testing.T) {
	resetViper(t)
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"enrich", "--help"})

	err := root.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "--input")
	assert.Contains(t, output, "--output")
	assert.Contains(t, output, "--mode")
	assert.Contains(t, output, "--truncate")
}
