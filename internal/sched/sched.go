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

// Package sched drives the daemon's single-threaded cooperative event
// loop: a virtual-clock tick advancing by cycle/2 each half-tick, autosave
// on its own cadence, and signal-derived actions, none of which ever touch
// model state from inside a signal handler.
package sched

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonymouse64/preheatd/internal/config"
	"github.com/anonymouse64/preheatd/internal/model"
	"github.com/anonymouse64/preheatd/internal/observer"
	"github.com/anonymouse64/preheatd/internal/persist"
	"github.com/anonymouse64/preheatd/internal/predictor"
)

// Scheduler owns the model, the observer/predictor pair, and the
// persistence path, and runs the tick loop that drives them.
type Scheduler struct {
	Config    config.Config
	State     *model.State
	Observer  *observer.Observer
	Predictor *predictor.Predictor

	StatePath     string
	PauseFlagPath string
	BoostFlagPath string

	lastSave float64

	// ReadMemstat is overridden in tests; defaults to observer.ReadMemstat.
	ReadMemstat func() (model.Memstat, error)
}

// New builds a Scheduler around an already-loaded state and the
// observer/predictor pair built from cfg.
func New(cfg config.Config, state *model.State, obs *observer.Observer, pred *predictor.Predictor, statePath string) *Scheduler {
	return &Scheduler{
		Config:      cfg,
		State:       state,
		Observer:    obs,
		Predictor:   pred,
		StatePath:   statePath,
		lastSave:    state.Time,
		ReadMemstat: observer.ReadMemstat,
	}
}

// Run drives the event loop until ctx-equivalent termination: it blocks
// until a SIGTERM/SIGINT requests a graceful stop, running one half-tick
// per timer expiry. Suspension points are timer expiry and the blocking
// I/O already embedded in Tick (proc reads, save, worker reaping) -- no
// additional goroutines are spawned, so a tick's update half always
// completes before the next tick begins.
func (s *Scheduler) Run() error {
	if s.Config.Cycle < 2 {
		s.Config.Cycle = config.Default().Cycle
	}
	half := time.Duration(s.Config.Cycle/2) * time.Second
	ticker := time.NewTicker(half)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ticker.C:
			s.Tick()

		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				log.Printf("sched: reload-config requested, restart to apply")
			case syscall.SIGUSR1:
				s.dumpState()
			case syscall.SIGUSR2:
				s.forceSave()
			case syscall.SIGTERM, syscall.SIGINT:
				log.Printf("sched: graceful stop requested")
				return s.shutdown()
			}
		}
	}
}

// Tick runs one scan/predict half-tick: the scan half always evolves the
// model; the predict half runs only if scanning/predicting are enabled and
// neither paused nor suppressed by budget.
func (s *Scheduler) Tick() {
	now := s.State.Time + float64(s.Config.Cycle)/2

	if s.Config.DoScan {
		newExes := s.Observer.Scan(s.State, now)
		s.Observer.Update(s.State, newExes, now)
	} else {
		s.State.Time = now
	}

	paused := IsPaused(s.PauseFlagPath)
	boosted := IsBoosted(s.BoostFlagPath)

	if s.Config.DoPredict {
		mem, err := s.ReadMemstat()
		if err != nil {
			log.Printf("sched: memstat read failed, skipping predict: %v", err)
		} else {
			s.State.Memstat = mem
			selected := s.Predictor.Select(s.State, mem, paused, boosted)
			if err := s.Predictor.Dispatch(selected); err != nil {
				log.Printf("sched: dispatch failed: %v", err)
			}
		}
	}

	s.autosave()
}

// autosave saves the model when the autosave cadence is due and the
// model-dirty flag is set. The dirty flag is cleared only after a
// successful save.
func (s *Scheduler) autosave() {
	due := s.Config.AutosaveSec <= 0 || s.State.Time-s.lastSave >= float64(s.Config.AutosaveSec)
	if !due || !s.State.ModelDirty {
		return
	}
	s.forceSave()
}

// forceSave saves the model unconditionally, as requested by the explicit
// save-state signal, regardless of the dirty flag or autosave cadence.
func (s *Scheduler) forceSave() {
	if err := persist.Save(s.State, s.StatePath); err != nil {
		log.Printf("sched: save failed: %v", err)
		return
	}
	s.State.ModelDirty = false
	s.lastSave = s.State.Time
}

func (s *Scheduler) dumpState() {
	log.Printf("sched: state dump: exes=%d maps=%d time=%.0f",
		s.State.NumExes(), s.State.NumMaps(), s.State.Time)
}

// shutdown drains the loop: it performs a final save if dirty and returns.
// Worker reaping with a bounded timeout already happens synchronously
// inside Dispatch/DispatchWorkers for the tick in flight, so by the time a
// signal is observed between ticks there is nothing left to wait on here.
func (s *Scheduler) shutdown() error {
	if s.State.ModelDirty {
		s.forceSave()
	}
	return nil
}
