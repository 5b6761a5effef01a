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
	"log"
	"os"

	"github.com/anonymouse64/preheatd/internal/config"
	"github.com/anonymouse64/preheatd/internal/model"
	"github.com/anonymouse64/preheatd/internal/procfs"
)

// Observer drives the scan and update half-ticks described by the model:
// diffing the running set, feeding weighted-launch accounting, reading
// memory maps for newly registered exes, and evolving markov edges.
type Observer struct {
	Config     config.Config
	ManualApps map[string]bool
	Desktop    DesktopFileChecker
}

// New builds an Observer for cfg, loading the manual-app list if configured.
func New(cfg config.Config) *Observer {
	return &Observer{
		Config:     cfg,
		ManualApps: loadManualApps(cfg.ManualApps),
	}
}

// Scan runs the scan half of a tick: it diffs the observed running set
// against the model, registers newly observed exes (assigning pool and
// seq immediately), accrues weighted-launch accounting, evolves markov
// sojourn statistics, and retires pids that are no longer running. It
// returns the set of (path -> pid) pairs newly registered this scan, for
// the subsequent update half to load maps for.
func (o *Observer) Scan(state *model.State, now float64) map[string]int {
	observed := make(map[int]string)
	if _, err := procfs.ForEachRunning(now, func(pid int, path string, vclock float64) {
		observed[pid] = path
	}); err != nil {
		log.Printf("observer: scan: %v", err)
		return nil
	}

	prevRunning := make(map[*model.Exe]bool, len(state.RunningExe))
	for _, exe := range state.RunningExe {
		prevRunning[exe] = true
	}

	newExes := make(map[string]int)

	for pid, path := range observed {
		if state.BadExes[path] {
			continue
		}
		exe, ok := state.LookupExe(path)
		isNewExe := !ok
		if isNewExe {
			pool := ClassifyPool(path, o.Config, o.ManualApps, o.Desktop)
			exe, _ = state.RegisterExe(path, pool)
		}
		if _, running := exe.RunningPids[pid]; !running {
			o.startTracker(state, exe, pid, now)
			if isNewExe {
				if _, queued := newExes[path]; !queued {
					newExes[path] = pid
				}
			}
		} else {
			accrueWeight(exe, pid, now)
		}
	}

	for _, exe := range state.AllExes() {
		wasRunning := prevRunning[exe]
		if wasRunning {
			exe.Time += now - exe.LastRunningTime
			updateExemapProbs(exe)
		}
		o.evolveMarkovs(exe, now)

		for pid, info := range exe.RunningPids {
			if _, stillRunning := observed[pid]; stillRunning {
				continue
			}
			exe.TotalDurationSec += uint64(now - info.StartTime)
			state.MarkExited(exe, pid)
		}
		if wasRunning || exe.Running() {
			exe.LastRunningTime = now
		}
	}

	state.Time = now
	state.LastAccounting = now
	return newExes
}

// startTracker records a freshly observed pid under exe and increments the
// raw-launch counter. user_initiated is resolved from the parent process
// name (shells/terminals/launchers) or, failing that, a desktop-file entry.
func (o *Observer) startTracker(state *model.State, exe *model.Exe, pid int, now float64) {
	parentPid, _ := procfs.ReadParentPid(pid)
	parentComm, _ := procfs.ReadComm(parentPid)
	info := &model.ProcInfo{
		Pid:              pid,
		ParentPid:        parentPid,
		StartTime:        now,
		LastWeightUpdate: now,
		UserInitiated:    IsUserInitiated(parentComm, exe.Path, o.Desktop),
	}
	exe.RawLaunches++
	state.MarkRunning(exe, info)
}

// accrueWeight accumulates the incremental weighted-launch contribution for
// a pid that was already running at the previous scan.
func accrueWeight(exe *model.Exe, pid int, now float64) {
	info, ok := exe.RunningPids[pid]
	if !ok {
		return
	}
	delta := now - info.LastWeightUpdate
	exe.WeightedLaunches += Weight(delta, info.UserInitiated)
	info.LastWeightUpdate = now
}

// updateExemapProbs recomputes each exemap's co-occurrence probability.
// The observer has no per-region usage telemetry beyond the read-only
// /proc maps snapshot, so every mapping an exe reports is equally likely:
// each exemap's prob is reset to 1.0, including any other value loaded
// from the state file.
func updateExemapProbs(exe *model.Exe) {
	for _, em := range exe.Exemaps {
		em.Prob = 1.0
	}
}

// evolveMarkovs drives Transition for every edge touching exe, processing
// each edge exactly once (from its A endpoint) since Markovs is indexed
// symmetrically on both endpoints.
func (o *Observer) evolveMarkovs(exe *model.Exe, now float64) {
	for _, m := range exe.Markovs {
		if m.A != exe {
			continue
		}
		Transition(m, now)
	}
}

// Update runs the update half of a tick: for every exe newly registered
// this scan, it reads memory maps (or synthesizes a whole-file mapping for
// manual-app entries whose maps can't be read), registers the resulting
// maps and exemaps, links markov edges to every priority-pool peer, and
// finally runs build_priority_mesh to guarantee full mesh connectivity.
func (o *Observer) Update(state *model.State, newExes map[string]int, now float64) {
	for path, pid := range newExes {
		exe, ok := state.LookupExe(path)
		if !ok {
			continue
		}
		o.loadMaps(state, exe, pid, now)
		o.linkPriorityPeers(state, exe, now)
	}
	buildPriorityMesh(state, now)
}

// loadMaps reads maps for pid and attaches exemaps to exe. If the read
// comes back empty (permission denied, vanished) and exe is in the
// manual-app list, a single whole-file exemap is synthesized instead.
// Otherwise exe is dropped into bad_exes. Exes whose total mapped size
// falls below the configured minimum are also dropped into bad_exes.
func (o *Observer) loadMaps(state *model.State, exe *model.Exe, pid int, now float64) {
	entries, err := procfs.ReadMaps(pid)
	if err != nil || len(entries) == 0 {
		if !o.ManualApps[exe.Path] {
			state.BadExes[exe.Path] = true
			return
		}
		entries = []procfs.MapEntry{{Path: exe.Path, Offset: 0, Length: wholeFileSize(exe.Path)}}
	}

	var total uint64
	for _, me := range entries {
		em := state.AddExemap(exe, me.Path, me.Offset, me.Length, 1.0)
		em.Map.LastUpdateTime = now
		total += me.Length
	}
	if total < o.Config.MinSize {
		state.BadExes[exe.Path] = true
	}
}

func wholeFileSize(path string) uint64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return uint64(fi.Size())
}

// linkPriorityPeers creates a markov edge from exe to every other
// priority-pool exe, if exe itself is in the priority pool.
func (o *Observer) linkPriorityPeers(state *model.State, exe *model.Exe, now float64) {
	if exe.Pool != model.PoolPriority {
		return
	}
	for _, peer := range state.AllExes() {
		if peer == exe || peer.Pool != model.PoolPriority {
			continue
		}
		if _, linked := exe.Markovs[peer.Path]; linked {
			continue
		}
		state.LinkMarkov(exe, peer, now)
	}
}

// buildPriorityMesh ensures every priority-pool exe has a markov edge to
// every other priority-pool exe, covering bulk-seeded entries (e.g. a
// manual-apps list loaded directly) that bypass per-exe edge creation.
func buildPriorityMesh(state *model.State, now float64) {
	var priority []*model.Exe
	for _, e := range state.AllExes() {
		if e.Pool == model.PoolPriority {
			priority = append(priority, e)
		}
	}
	for i := 0; i < len(priority); i++ {
		for j := i + 1; j < len(priority); j++ {
			a, b := priority[i], priority[j]
			if _, ok := a.Markovs[b.Path]; ok {
				continue
			}
			state.LinkMarkov(a, b, now)
		}
	}
}
