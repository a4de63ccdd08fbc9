// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package router categorizes sanitized ticket text into support domains by
// combining curated keyword vocabularies with a semantic LLM oracle.
package router

import (
	_ "embed"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

//go:embed vocab.yaml
var embeddedVocab []byte

type vocabFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// VocabStore holds the per-category keyword vocabularies. It is safe for
// concurrent use; Watch swaps the whole vocabulary atomically on reload so
// in-flight matches never see a half-updated table.
type VocabStore struct {
	mu         sync.RWMutex
	byCategory map[datatypes.TicketCategory][]string
}

// LoadEmbeddedVocab parses the vocabulary baked into the binary.
func LoadEmbeddedVocab() (*VocabStore, error) {
	return parseVocab(embeddedVocab)
}

// LoadVocabFile parses a vocabulary override from disk.
func LoadVocabFile(path string) (*VocabStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocab file %s: %w", path, err)
	}
	return parseVocab(raw)
}

func parseVocab(raw []byte) (*VocabStore, error) {
	var file vocabFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse vocab: %w", err)
	}
	byCategory := make(map[datatypes.TicketCategory][]string, len(file.Categories))
	for name, keywords := range file.Categories {
		cat := datatypes.TicketCategory(name)
		lowered := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				lowered = append(lowered, kw)
			}
		}
		byCategory[cat] = lowered
	}
	if len(byCategory) == 0 {
		return nil, fmt.Errorf("vocab has no categories")
	}
	return &VocabStore{byCategory: byCategory}, nil
}

// Match counts keyword hits per category in the given text. Single-word
// keywords match on word boundaries so short entries like "pto" cannot fire
// inside longer words; multi-word phrases match as substrings.
func (v *VocabStore) Match(text string) map[datatypes.TicketCategory]int {
	lowered := strings.ToLower(text)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 0x80)
	}) {
		words[w] = true
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	counts := make(map[datatypes.TicketCategory]int)
	for cat, keywords := range v.byCategory {
		for _, kw := range keywords {
			if strings.ContainsRune(kw, ' ') {
				if strings.Contains(lowered, kw) {
					counts[cat]++
				}
			} else if words[kw] {
				counts[cat]++
			}
		}
	}
	return counts
}

func (v *VocabStore) replaceFrom(other *VocabStore) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.byCategory = other.byCategory
}

// Watch hot-reloads the vocabulary whenever path changes, until ctx is
// cancelled. A file that fails to parse is logged and skipped; the previous
// vocabulary stays active.
func (v *VocabStore) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create vocab watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return fmt.Errorf("watch vocab file %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				fresh, err := LoadVocabFile(path)
				if err != nil {
					slog.Error("Vocab reload failed, keeping previous vocabulary",
						"path", path, "error", err)
					continue
				}
				v.replaceFrom(fresh)
				slog.Info("Router vocabulary reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Vocab watcher error", "error", err)
			}
		}
	}()
	return nil
}
