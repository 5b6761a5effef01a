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

// Pool classifies an exe for correlation-driven prediction purposes.
type Pool int

const (
	// PoolObservation exes are tracked passively but never get markov edges.
	PoolObservation Pool = iota
	// PoolPriority exes participate in correlation prediction.
	PoolPriority
)

func (p Pool) String() string {
	if p == PoolPriority {
		return "priority"
	}
	return "observation"
}

// ProcInfo is the per-pid bookkeeping kept while an exe is running.
type ProcInfo struct {
	Pid             int
	ParentPid       int
	StartTime       float64
	LastWeightUpdate float64
	UserInitiated   bool
}

// Exe is a tracked binary, identified by its canonical absolute path.
type Exe struct {
	Path string
	Seq  uint64

	Time               float64 // total_running_time, in virtual clock seconds
	LastRunningTime    float64
	ChangeTimestamp    float64
	Pool               Pool
	WeightedLaunches   float64
	RawLaunches        uint64
	TotalDurationSec   uint64

	// Exemaps indexed by map seq for stable iteration and lookup.
	Exemaps map[uint64]*Exemap
	// Markovs indexed by the peer exe's path.
	Markovs map[string]*Markov

	RunningPids map[int]*ProcInfo
}

func newExe(path string, seq uint64, pool Pool) *Exe {
	return &Exe{
		Path:        path,
		Seq:         seq,
		Pool:        pool,
		Exemaps:     make(map[uint64]*Exemap),
		Markovs:     make(map[string]*Markov),
		RunningPids: make(map[int]*ProcInfo),
	}
}

// Running reports whether the exe currently has at least one tracked pid.
func (e *Exe) Running() bool {
	return len(e.RunningPids) > 0
}

// Size is the sum of exemap map lengths owned by this exe.
func (e *Exe) Size() uint64 {
	var total uint64
	for _, em := range e.Exemaps {
		total += em.Map.Length
	}
	return total
}
