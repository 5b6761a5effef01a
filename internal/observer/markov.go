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

package observer

import (
	"math"

	"github.com/anonymouse64/preheatd/internal/model"
)

// Transition advances m to whatever state a/b's current running status
// implies "now" is. If the running status hasn't changed since the last
// recorded transition (or this call coincides exactly with the last one),
// it is a no-op. It reports whether a transition occurred.
func Transition(m *model.Markov, now float64) bool {
	if m.ChangeTimestamp == now {
		return false
	}
	sOld := m.State
	sNew := model.RunningState(m.A, m.B)
	if sOld == sNew {
		return false
	}

	m.Weight[sOld][sOld]++
	n := m.Weight[sOld][sOld]

	delta := now - m.ChangeTimestamp
	m.TimeToLeave[sOld] += (delta - m.TimeToLeave[sOld]) / float64(n)

	if sOld == 3 {
		m.Time += delta
	}

	m.Weight[sOld][sNew]++
	m.State = sNew
	m.ChangeTimestamp = now
	return true
}

// Correlation computes the Pearson coefficient between the Bernoulli
// indicators of a and b both being running, over [0, state.Time].
func Correlation(state *model.State, m *model.Markov) float64 {
	t := state.Time
	a := m.A.Time
	b := m.B.Time
	ab := m.Time

	if a == 0 || a == t || b == 0 || b == t {
		return 0
	}

	denom := math.Sqrt(a * b * (t - a) * (t - b))
	if denom == 0 {
		return 0
	}
	corr := (t*ab - a*b) / denom

	const eps = 1e-9
	if corr > 1+eps {
		return 1
	}
	if corr < -1-eps {
		return -1
	}
	if corr > 1 {
		return 1
	}
	if corr < -1 {
		return -1
	}
	return corr
}
