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

// Memstat is a snapshot of /proc/meminfo, all values in bytes.
type Memstat struct {
	Total   uint64
	Free    uint64
	Cached  uint64
	Buffers uint64
}

// State is the global singleton model: exes, maps, exemaps and markov edges,
// plus the virtual clock and bookkeeping the daemon threads through its
// components explicitly rather than referencing as a process-wide global.
type State struct {
	exes map[string]*Exe
	maps map[mapKey]*Map

	nextExeSeq uint64
	nextMapSeq uint64

	BadExes    map[string]bool
	Families   []*Family
	RunningExe map[string]*Exe

	// Time is the virtual clock: monotonic seconds accumulated across the
	// daemon's lifetime, advanced by cycle/2 each half-tick. Never derived
	// from wall time.
	Time           float64
	LastAccounting float64
	LastRunning    float64

	Dirty      bool
	ModelDirty bool

	Memstat Memstat
}

// New returns an empty model state.
func New() *State {
	return &State{
		exes:       make(map[string]*Exe),
		maps:       make(map[mapKey]*Map),
		nextExeSeq: 1,
		nextMapSeq: 1,
		BadExes:    make(map[string]bool),
		RunningExe: make(map[string]*Exe),
	}
}

// RegisterExe creates and registers a new exe, assigning it a fresh seq.
// It is an error to register a path that is already known.
func (s *State) RegisterExe(path string, pool Pool) (*Exe, error) {
	if _, ok := s.exes[path]; ok {
		return nil, ErrDuplicateExe
	}
	e := newExe(path, s.nextExeSeq, pool)
	s.nextExeSeq++
	s.exes[path] = e
	s.ModelDirty = true
	return e, nil
}

// LookupExe returns the exe registered under path, if any.
func (s *State) LookupExe(path string) (*Exe, bool) {
	e, ok := s.exes[path]
	return e, ok
}

// AllExes returns every registered exe, in no particular order.
func (s *State) AllExes() []*Exe {
	out := make([]*Exe, 0, len(s.exes))
	for _, e := range s.exes {
		out = append(out, e)
	}
	return out
}

// NumExes reports the number of registered exes.
func (s *State) NumExes() int {
	return len(s.exes)
}

// GetOrCreateMap returns the map for (path, offset, length), creating it in
// the registry (refcount 0) if it does not already exist. The created
// return value reports whether a new map was allocated.
func (s *State) GetOrCreateMap(path string, offset, length uint64) (m *Map, created bool) {
	k := mapKey{path: path, offset: offset, length: length}
	if existing, ok := s.maps[k]; ok {
		return existing, false
	}
	m = &Map{
		Path:   path,
		Offset: offset,
		Length: length,
		Seq:    s.nextMapSeq,
		Block:  -1,
	}
	s.nextMapSeq++
	s.maps[k] = m
	return m, true
}

// NumMaps reports the number of maps currently in the registry. A map
// created by GetOrCreateMap is counted even before an exemap references it.
func (s *State) NumMaps() int {
	return len(s.maps)
}

// AllMaps returns every map currently in the registry.
func (s *State) AllMaps() []*Map {
	out := make([]*Map, 0, len(s.maps))
	for _, m := range s.maps {
		out = append(out, m)
	}
	return out
}

// AddExemap attaches a new exemap from exe to the map at (path, offset,
// length), creating the map if needed and taking a strong reference on it.
func (s *State) AddExemap(exe *Exe, path string, offset, length uint64, prob float64) *Exemap {
	m, _ := s.GetOrCreateMap(path, offset, length)
	return s.AttachExemap(exe, m, prob)
}

// AttachExemap attaches exe to an already-resolved map m, taking a strong
// reference on it. Used directly by the persistence loader, which resolves
// maps by their on-disk seq before re-linking exes to them.
func (s *State) AttachExemap(exe *Exe, m *Map, prob float64) *Exemap {
	m.refcount++
	em := &Exemap{Exe: exe, Map: m, Prob: prob}
	exe.Exemaps[m.Seq] = em
	s.ModelDirty = true
	return em
}

// RemoveExemap drops the exemap for the given map seq from exe, dropping
// the map from the registry entirely once its refcount reaches zero.
func (s *State) RemoveExemap(exe *Exe, mapSeq uint64) {
	em, ok := exe.Exemaps[mapSeq]
	if !ok {
		return
	}
	delete(exe.Exemaps, mapSeq)
	em.Map.refcount--
	if em.Map.refcount <= 0 {
		delete(s.maps, em.Map.key())
	}
	s.ModelDirty = true
}

// MarkRunning records pid as running under exe and ensures exe is present
// in the running-exe set.
func (s *State) MarkRunning(exe *Exe, pid *ProcInfo) {
	exe.RunningPids[pid.Pid] = pid
	s.RunningExe[exe.Path] = exe
}

// MarkExited removes pid from exe's running set, dropping exe from the
// running-exe set once no pids remain.
func (s *State) MarkExited(exe *Exe, pid int) {
	delete(exe.RunningPids, pid)
	if !exe.Running() {
		delete(s.RunningExe, exe.Path)
	}
}

// IsRunning reports whether exe is currently in the running-exe set.
func (s *State) IsRunning(exe *Exe) bool {
	_, ok := s.RunningExe[exe.Path]
	return ok
}
