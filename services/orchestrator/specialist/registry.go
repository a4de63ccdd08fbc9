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
	"errors"
	"fmt"

	"github.com/AleutianAI/AleutianDesk/services/knowledge"
	"github.com/AleutianAI/AleutianDesk/services/llm"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
	"github.com/AleutianAI/AleutianDesk/services/runbook"
)

// ErrNoSpecialist is returned for categories outside the closed set.
var ErrNoSpecialist = errors.New("no specialist registered for category")

// Registry holds the closed set of specialists, one per support domain.
// The set is fixed at construction; there is no dynamic registration.
type Registry struct {
	byCategory map[datatypes.TicketCategory]*Specialist
}

// NewRegistry builds the five domain specialists over shared collaborators.
// oracle may be nil (template answers, development mode).
func NewRegistry(kb knowledge.Store, exec runbook.Executor, oracle llm.LLMClient) *Registry {
	byCategory := make(map[datatypes.TicketCategory]*Specialist, len(datatypes.CategoryPriorityOrder))
	for _, cat := range datatypes.CategoryPriorityOrder {
		byCategory[cat] = &Specialist{
			category: cat,
			agent:    datatypes.SpecialistAgentFor(cat),
			kb:       kb,
			exec:     exec,
			oracle:   oracle,
		}
	}
	return &Registry{byCategory: byCategory}
}

// Get returns the specialist for a concrete domain category. The multi and
// unknown sentinels have no specialist; the orchestrator resolves them
// before dispatch.
func (r *Registry) Get(cat datatypes.TicketCategory) (*Specialist, error) {
	s, ok := r.byCategory[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSpecialist, cat)
	}
	return s, nil
}
