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

package model

// Markov is an undirected pairwise correlation edge between two exes,
// modeling joint running state as a 4-state continuous-time markov chain.
// State encodes (a_running, b_running) as 2*b + 1*a.
type Markov struct {
	A, B *Exe

	State           int
	ChangeTimestamp float64
	Time            float64 // seconds spent with both a and b running (state 3)

	TimeToLeave [4]float64
	Weight      [4][4]uint64
}

// Peer returns the other endpoint of the edge relative to e.
func (m *Markov) Peer(e *Exe) *Exe {
	if m.A == e {
		return m.B
	}
	return m.A
}

// LinkMarkov creates a markov edge between a and b and registers it in both
// endpoints' Markovs sets. This is the only constructor for edges: the
// "twin registration" is centralized here so the invariant that every edge
// appears in exactly two exes' markovs sets cannot be violated by a caller
// writing to only one side.
func (s *State) LinkMarkov(a, b *Exe, now float64) (*Markov, error) {
	if a == b {
		return nil, errSameExe
	}
	if _, ok := a.Markovs[b.Path]; ok {
		return nil, errDuplicateMarkov
	}
	initState := runningState(a, b)
	m := &Markov{
		A:               a,
		B:               b,
		State:           initState,
		ChangeTimestamp: now,
	}
	a.Markovs[b.Path] = m
	b.Markovs[a.Path] = m
	return m, nil
}

// UnlinkMarkov removes a markov edge from both endpoints' sets.
func (s *State) UnlinkMarkov(m *Markov) {
	delete(m.A.Markovs, m.B.Path)
	delete(m.B.Markovs, m.A.Path)
}

// runningState computes S(a,b) = 2*1[b_running] + 1*1[a_running].
func runningState(a, b *Exe) int {
	s := 0
	if a.Running() {
		s |= 1
	}
	if b.Running() {
		s |= 2
	}
	return s
}

// RunningState exports the S(a,b) = 2*1[b_running] + 1*1[a_running] state
// encoding for use by packages driving markov transitions.
func RunningState(a, b *Exe) int {
	return runningState(a, b)
}
