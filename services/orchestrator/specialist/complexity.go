// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package specialist

import (
	"regexp"
	"strconv"
	"strings"
)

// complexityCeiling is the hard confidence cap applied when complexity
// factors are present. It sits below the escalation threshold: complex
// tickets always reach a human.
const complexityCeiling = 0.4

// highValueThreshold is the monetary amount above which a ticket counts as
// high-stakes.
const highValueThreshold = 10_000

var moneyPattern = regexp.MustCompile(`\$\s?([\d,]+(?:\.\d+)?)`)

// complianceTerms flag specialized legal/regulatory stakes regardless of
// which specialist is handling the ticket.
var complianceTerms = []string{
	"lawsuit", "litigation", "subpoena", "indemnification", "indemnity",
	"class action", "regulatory investigation", "breach of contract",
	"data breach", "sec filing", "audit finding", "whistleblower",
}

// uncertaintyMarkers are explicit user signals that the request itself is
// not well formed enough for an automated answer.
var uncertaintyMarkers = []string{
	"not sure", "no idea", "i don't know", "i dont know", "don't understand",
	"confused", "maybe", "i think", "possibly", "no sé", "no entiendo",
}

// assessComplexity reports whether the text carries complexity factors that
// hard-cap specialist confidence, and a short reason for the trace.
func assessComplexity(text string) (bool, string) {
	lowered := strings.ToLower(text)

	for _, m := range moneyPattern.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		if amount, err := strconv.ParseFloat(raw, 64); err == nil && amount >= highValueThreshold {
			return true, "high monetary value involved"
		}
	}
	for _, term := range complianceTerms {
		if strings.Contains(lowered, term) {
			return true, "specialized legal/compliance terms present"
		}
	}
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(lowered, marker) {
			return true, "explicit uncertainty in the request"
		}
	}
	return false, ""
}
