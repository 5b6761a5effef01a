/*
 * Copyright (C) 2019 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package predictor

import (
	"log"
	"time"

	"github.com/anonymouse64/preheatd/internal/config"
	"github.com/anonymouse64/preheatd/internal/model"
	"github.com/anonymouse64/preheatd/internal/quantity"
)

// reapTimeout bounds how long the parent waits for fork workers before
// escalating to SIGKILL.
const reapTimeout = 5 * time.Second

// Predictor scores candidates, computes budget, selects a subset, and
// dispatches fork-worker readahead calls for the current tick.
type Predictor struct {
	Config     config.Config
	ManualApps map[string]bool
}

// New builds a Predictor for cfg.
func New(cfg config.Config, manualApps map[string]bool) *Predictor {
	return &Predictor{Config: cfg, ManualApps: manualApps}
}

// Select runs the scoring, budgeting, and set-selection steps for one
// tick, returning the ordered list of maps to preload. paused suppresses
// selection entirely (the scan phase still evolves the model elsewhere).
// boosted bypasses the budget and forces the top boot-boost exes.
func (p *Predictor) Select(state *model.State, mem model.Memstat, paused, boosted bool) []Candidate {
	if paused || !p.Config.DoPredict {
		return nil
	}

	if boosted {
		selected := boostSelection(state, p.ManualApps, p.Config.UseCorrelation, DefaultBootBoostCount)
		return OrderForDispatch(selected, p.Config.SortStrategy)
	}

	budget := Budget(p.Config.MemTotalPct, p.Config.MemFreePct, p.Config.MemCachedPct, mem)
	if budget == 0 {
		return nil
	}
	log.Printf("predictor: budget %s", quantity.Bytes(budget))

	candidates := Candidates(state, p.ManualApps, p.Config.UseCorrelation)
	selected := Select(candidates, budget)
	return OrderForDispatch(selected, p.Config.SortStrategy)
}

// Dispatch converts the selected candidates to readahead work items and
// fans them out to worker processes, waiting for completion.
func (p *Predictor) Dispatch(selected []Candidate) error {
	if len(selected) == 0 {
		return nil
	}
	items := make([]WorkItem, 0, len(selected))
	for _, c := range selected {
		items = append(items, WorkItem{Path: c.Map.Path, Offset: c.Map.Offset, Length: c.Map.Length})
	}
	return DispatchWorkers(items, p.Config.MaxProcs, reapTimeout)
}
