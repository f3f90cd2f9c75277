// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KGPath Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	kgerr "github.com/kgpath-dev/kgpath/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := kgerr.New(
		kgerr.CodeConfigValidateInvalidValue,
		"invalid pipeline configuration",
		kgerr.FieldRunID("run-123"),
		kgerr.Field("mode", "onehop"),
	)

	require.Error(t, err)
	assert.Equal(t, kgerr.CodeConfigValidateInvalidValue, kgerr.CodeOf(err))
	assert.True(t, kgerr.HasCode(err, kgerr.CodeConfigValidateInvalidValue))

	fields := kgerr.FieldsOf(err)
	assert.Equal(t, "run-123", fields["run_id"])
	assert.Equal(t, "onehop", fields["mode"])
}

func TestErrorfWrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := kgerr.Errorf(kgerr.CodePipelineOutputWriteFailure, "appending records: %w", cause)

	require.Error(t, err)
	assert.Equal(t, kgerr.CodePipelineOutputWriteFailure, kgerr.CodeOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, kgerr.Wrap(nil, kgerr.CodePipelineInputReadFailure, "reading pairs"))
	assert.NoError(t, kgerr.Wrapf(nil, kgerr.CodePipelineInputReadFailure, "reading pairs"))
	assert.NoError(t, kgerr.With(nil, kgerr.FieldBatch(3)))
}

func TestWrapPreservesCauseAndFields(t *testing.T) {
	cause := fmt.Errorf("no such file")
	err := kgerr.Wrap(cause, kgerr.CodePipelineInputReadFailure, "reading pair list",
		kgerr.FieldPath("pairs.tsv"))

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, kgerr.CodePipelineInputReadFailure, kgerr.CodeOf(err))
	assert.Equal(t, "pairs.tsv", kgerr.FieldsOf(err)["path"])
}

func TestWithKeepsExistingCode(t *testing.T) {
	err := kgerr.New(kgerr.CodePipelineOutputOpenFailure, "opening output")
	err = kgerr.With(err, kgerr.FieldBatch(7))

	assert.Equal(t, kgerr.CodePipelineOutputOpenFailure, kgerr.CodeOf(err))
	assert.Equal(t, 7, kgerr.FieldsOf(err)["batch"])
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, kgerr.Code(""), kgerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, kgerr.Code(""), kgerr.CodeOf(nil))
	assert.Nil(t, kgerr.FieldsOf(stderrors.New("plain")))
}

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, kgerr.IsInvalidInput(kgerr.New(kgerr.CodeConfigValidateInvalidValue, "bad mode")))
	assert.True(t, kgerr.IsInvalidInput(kgerr.New(kgerr.CodeCLIInputInvalid, "bad flag")))
	assert.False(t, kgerr.IsInvalidInput(kgerr.New(kgerr.CodePipelineInputReadFailure, "io")))
	assert.False(t, kgerr.IsInvalidInput(nil))
}
