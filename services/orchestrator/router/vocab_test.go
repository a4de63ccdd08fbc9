// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package router

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

func TestVocabMatchWordBoundaries(t *testing.T) {
	vocab, err := LoadEmbeddedVocab()
	require.NoError(t, err)

	counts := vocab.Match("my laptop will not boot")
	assert.Greater(t, counts[datatypes.CategoryITSupport], 0)
	assert.Equal(t, 0, counts[datatypes.CategoryHRInquiry],
		"'pto' must not match inside 'laptop'")
}

func TestVocabMatchPhrases(t *testing.T) {
	vocab, err := LoadEmbeddedVocab()
	require.NoError(t, err)

	counts := vocab.Match("I want to book the meeting room on Tuesday")
	assert.Greater(t, counts[datatypes.CategoryFacilities], 0)
}

func TestVocabMatchSpanish(t *testing.T) {
	vocab, err := LoadEmbeddedVocab()
	require.NoError(t, err)

	counts := vocab.Match("olvidé mi contraseña del sistema")
	assert.Greater(t, counts[datatypes.CategoryITSupport], 0)
}

func TestVocabHotReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	initial := "categories:\n  it_support:\n    - password\n"
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o600))

	vocab, err := LoadVocabFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, vocab.Watch(ctx, path))

	assert.Equal(t, 0, vocab.Match("the telephone is broken")[datatypes.CategoryITSupport])

	updated := "categories:\n  it_support:\n    - password\n    - telephone\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	require.Eventually(t, func() bool {
		return vocab.Match("the telephone is broken")[datatypes.CategoryITSupport] > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestVocabRejectsEmptyFile(t *testing.T) {
	_, err := parseVocab([]byte("categories: {}\n"))
	assert.Error(t, err)
}
