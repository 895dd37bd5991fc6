// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ataraxy-labs/sem/pkg/entity"
	"github.com/ataraxy-labs/sem/pkg/parser"
)

func TestComputeSemanticDiff_SingleFileModification(t *testing.T) {
	reg := parser.NewDefaultRegistry()
	files := []entity.FileChange{
		{
			FilePath:      "config.json",
			Status:        entity.FileModified,
			BeforeContent: []byte(`{"version":"1.0.0"}`),
			AfterContent:  []byte(`{"version":"2.0.0"}`),
		},
	}

	result, err := ComputeSemanticDiff(context.Background(), files, reg, "sha1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.FileCount)
	assert.Equal(t, 1, result.Summary.Modified)
	assert.Equal(t, []string{"config.json"}, result.Files)
}

func TestComputeSemanticDiff_FileWithNoChangesContributesNothing(t *testing.T) {
	reg := parser.NewDefaultRegistry()
	content := []byte(`{"version":"1.0.0"}`)
	files := []entity.FileChange{
		{FilePath: "config.json", Status: entity.FileModified, BeforeContent: content, AfterContent: content},
	}

	result, err := ComputeSemanticDiff(context.Background(), files, reg, "sha1", "")
	require.NoError(t, err)
	assert.Empty(t, result.Changes)
	assert.Empty(t, result.Files)
	assert.Equal(t, 0, result.Summary.FileCount)
}

func TestComputeSemanticDiff_UnknownExtensionUsesFallback(t *testing.T) {
	reg := parser.NewDefaultRegistry()
	files := []entity.FileChange{
		{FilePath: "notes.xyz", Status: entity.FileAdded, AfterContent: []byte("line one\nline two\n")},
	}

	result, err := ComputeSemanticDiff(context.Background(), files, reg, "sha1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Changes)
	assert.Equal(t, 1, result.Summary.FileCount)
	assert.Equal(t, len(result.Changes), result.Summary.Added)
}

func TestComputeSemanticDiff_SequentialAndParallelPathsAgree(t *testing.T) {
	reg := parser.NewDefaultRegistry()
	files := make([]entity.FileChange, 0, 25)
	for i := 0; i < 25; i++ {
		before := fmt.Sprintf(`{"v":%d}`, i)
		after := fmt.Sprintf(`{"v":%d}`, i+1)
		files = append(files, entity.FileChange{
			FilePath:      fmt.Sprintf("f%d.json", i),
			Status:        entity.FileModified,
			BeforeContent: []byte(before),
			AfterContent:  []byte(after),
		})
	}

	sequential, err := computeSemanticDiff(context.Background(), files, reg, "sha1", "", 1)
	require.NoError(t, err)

	parallel, err := computeSemanticDiff(context.Background(), files, reg, "sha1", "", 4)
	require.NoError(t, err)

	assert.Equal(t, sequential.Summary, parallel.Summary)
	assert.ElementsMatch(t, changeIDs(sequential.Changes), changeIDs(parallel.Changes))
}

func TestComputeSemanticDiff_ContextCancellationStopsSequentialPass(t *testing.T) {
	reg := parser.NewDefaultRegistry()
	files := []entity.FileChange{
		{FilePath: "a.json", Status: entity.FileModified, BeforeContent: []byte(`{"a":1}`), AfterContent: []byte(`{"a":2}`)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := computeSemanticDiff(ctx, files, reg, "sha1", "", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeSemanticDiff_RenamedFileUsesOldPathForBeforeSide(t *testing.T) {
	reg := parser.NewDefaultRegistry()
	files := []entity.FileChange{
		{
			FilePath:      "new.json",
			OldFilePath:   "old.json",
			Status:        entity.FileRenamed,
			BeforeContent: []byte(`{"a":1}`),
			AfterContent:  []byte(`{"a":1}`),
		},
	}

	result, err := ComputeSemanticDiff(context.Background(), files, reg, "sha1", "")
	require.NoError(t, err)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, entity.Moved, result.Changes[0].ChangeType)
	assert.Equal(t, "old.json", result.Changes[0].OldFilePath)
}

func changeIDs(changes []entity.SemanticChange) []string {
	ids := make([]string, len(changes))
	for i, c := range changes {
		ids[i] = c.ID
	}
	return ids
}
