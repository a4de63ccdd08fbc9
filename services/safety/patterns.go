// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package safety

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianDesk/services/safety/enforcement"
)

// PatternMatch describes which rule and pattern blocked a text.
type PatternMatch struct {
	Reason    BlockReason
	PatternID string
}

// PatternSet is the compiled pattern layer. Construction is the only
// fallible step; Match never fails on any input.
type PatternSet struct {
	file SafetyPatternFile
}

// LoadEmbeddedPatterns parses and compiles the patterns baked into the
// binary. Called once at startup; a failure here is a build defect.
func LoadEmbeddedPatterns() (*PatternSet, error) {
	return loadPatterns(enforcement.SafetyPatterns)
}

func loadPatterns(raw []byte) (*PatternSet, error) {
	var file SafetyPatternFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse safety patterns: %w", err)
	}
	if err := file.CompileRegexes(); err != nil {
		return nil, err
	}
	file.SortByPriority()
	return &PatternSet{file: file}, nil
}

// Match scans text against every rule in priority order and returns the
// first hit. Malformed or empty input is never an error: it simply does not
// match.
func (ps *PatternSet) Match(text string) (PatternMatch, bool) {
	if text == "" {
		return PatternMatch{}, false
	}
	for _, rule := range ps.file.Rules {
		for _, p := range rule.Patterns {
			if p.compiled == nil {
				continue
			}
			if p.LuhnCheck {
				if matchWithLuhn(p.compiled, text) {
					return PatternMatch{Reason: BlockReason(rule.Reason), PatternID: p.ID}, true
				}
				continue
			}
			if p.compiled.MatchString(text) {
				return PatternMatch{Reason: BlockReason(rule.Reason), PatternID: p.ID}, true
			}
		}
	}
	return PatternMatch{}, false
}

// matchWithLuhn requires at least one regex match whose digits pass the
// Luhn checksum. Order numbers and tracking IDs share the card shape but
// almost never checksum correctly.
func matchWithLuhn(re *regexp.Regexp, text string) bool {
	for _, candidate := range re.FindAllString(text, -1) {
		if luhnValid(candidate) {
			return true
		}
	}
	return false
}

func luhnValid(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
