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

// Package predictor scores candidate maps, computes the RAM budget,
// greedily selects a subset to preload, and dispatches fork-worker
// readahead calls for the selection.
package predictor

import (
	"math"

	"github.com/anonymouse64/preheatd/internal/model"
	"github.com/anonymouse64/preheatd/internal/observer"
)

// manualLnprob is the fixed, very-negative constant manual-app entries are
// forced to: treated as certain to run, so -lnprob (the selection score)
// dominates every computed candidate.
const manualLnprob = -1e9

const probEpsilon = 1e-6

// Lnprob computes the negative-log-probability that exe is (or will be)
// running in the next cycle. The base term comes from the exe's own
// running-time fraction; each markov edge with a nonzero correlation adds
// a correction pulling the estimate towards or away from certainty
// depending on the peer's current running state.
func Lnprob(state *model.State, exe *model.Exe, manualApps map[string]bool, useCorrelation bool) float64 {
	if manualApps[exe.Path] {
		return manualLnprob
	}
	if state.Time <= 0 {
		return -math.Log(0.5)
	}

	pSelf := clampProb(exe.Time / state.Time)
	lnp := -math.Log(pSelf)

	if !useCorrelation {
		return lnp
	}

	for _, m := range exe.Markovs {
		corr := observer.Correlation(state, m)
		if corr == 0 {
			continue
		}
		peer := m.Peer(exe)
		pCond := conditionalProb(pSelf, corr, peer.Running())
		lnp += -math.Log(clampProb(pCond))
	}
	return lnp
}

func clampProb(p float64) float64 {
	if math.IsNaN(p) {
		return 0.5
	}
	if p < probEpsilon {
		return probEpsilon
	}
	if p > 1-probEpsilon {
		return 1 - probEpsilon
	}
	return p
}

// conditionalProb nudges pSelf towards 1 or 0 depending on whether the
// peer is currently running and corr's sign/magnitude: a positive
// correlation with a running peer raises the estimate above pSelf
// (lowering lnprob); a negative correlation with a running peer lowers it.
func conditionalProb(pSelf, corr float64, peerRunning bool) float64 {
	sign := 1.0
	if !peerRunning {
		sign = -1.0
	}
	adjust := sign * corr
	if adjust >= 0 {
		return pSelf + (1-pSelf)*adjust
	}
	return pSelf + pSelf*adjust
}
