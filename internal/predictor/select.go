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
	"sort"

	"github.com/anonymouse64/preheatd/internal/model"
)

// Candidate is a scored map belonging to a not-currently-running
// priority-pool exe, eligible for preload selection.
type Candidate struct {
	Map   *model.Map
	Exe   *model.Exe
	Score float64
}

// Candidates collects every exemap of every not-currently-running
// priority-pool exe, scored as -lnprob(exe) * exemap.prob -- the sign
// flip turns the negative-log cost into a score to maximize, so a manual
// app's very-negative lnprob turns into an overwhelming positive score.
func Candidates(state *model.State, manualApps map[string]bool, useCorrelation bool) []Candidate {
	var out []Candidate
	for _, exe := range state.AllExes() {
		if exe.Pool != model.PoolPriority || exe.Running() {
			continue
		}
		score := -Lnprob(state, exe, manualApps, useCorrelation)
		for _, em := range exe.Exemaps {
			out = append(out, Candidate{Map: em.Map, Exe: exe, Score: score * em.Prob})
		}
	}
	return out
}

// Select greedily picks candidates by score/length ratio until budget is
// exhausted, deterministically breaking ties by map seq. A zero budget
// selects nothing.
func Select(candidates []Candidate, budget uint64) []Candidate {
	if budget == 0 || len(candidates) == 0 {
		return nil
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		ri := ratio(sorted[i])
		rj := ratio(sorted[j])
		if ri != rj {
			return ri > rj
		}
		return sorted[i].Map.Seq < sorted[j].Map.Seq
	})

	var out []Candidate
	var used uint64
	for _, c := range sorted {
		if used+c.Map.Length > budget {
			continue
		}
		out = append(out, c)
		used += c.Map.Length
	}
	return out
}

func ratio(c Candidate) float64 {
	if c.Map.Length == 0 {
		return c.Score
	}
	return c.Score / float64(c.Map.Length)
}

// DefaultBootBoostCount is the default top-N priority-pool exes a session
// boost forces onto the selection unconditionally.
const DefaultBootBoostCount = 5

// boostSelection returns every exemap belonging to the top-n scoring,
// not-currently-running priority-pool exes, ignoring budget entirely.
func boostSelection(state *model.State, manualApps map[string]bool, useCorrelation bool, n int) []Candidate {
	type scored struct {
		exe   *model.Exe
		score float64
	}
	var ranked []scored
	for _, exe := range state.AllExes() {
		if exe.Pool != model.PoolPriority || exe.Running() {
			continue
		}
		ranked = append(ranked, scored{exe: exe, score: -Lnprob(state, exe, manualApps, useCorrelation)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].exe.Seq < ranked[j].exe.Seq
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	var out []Candidate
	for _, r := range ranked {
		for _, em := range r.exe.Exemaps {
			out = append(out, Candidate{Map: em.Map, Exe: r.exe, Score: r.score * em.Prob})
		}
	}
	return out
}
