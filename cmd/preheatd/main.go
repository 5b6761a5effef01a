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

package main

import (
	"fmt"
	"log"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/anonymouse64/preheatd/internal/config"
	"github.com/anonymouse64/preheatd/internal/observer"
	"github.com/anonymouse64/preheatd/internal/persist"
	"github.com/anonymouse64/preheatd/internal/predictor"
	"github.com/anonymouse64/preheatd/internal/profiling"
	"github.com/anonymouse64/preheatd/internal/sched"
)

// Command is the command-line surface for the daemon.
type Command struct {
	Config     string `short:"c" long:"config" description:"Path to the INI config file" default:"/etc/preheatd.conf"`
	StateFile  string `long:"state-file" description:"Path to the persisted model state file" default:"/var/lib/preheatd/preload.state"`
	LockFile   string `long:"lock-file" description:"Path to the single-instance PID lock file" default:"/run/preheatd.pid"`
	PauseFile  string `long:"pause-file" description:"Path to the externally managed pause flag file" default:"/run/preheatd.pause"`
	BoostFile  string `long:"boost-file" description:"Path to the externally managed session-boost flag file" default:"/run/preheatd.boost"`
	Foreground bool   `short:"f" long:"foreground" description:"Run in the foreground instead of as a daemon"`
	DropCaches bool   `long:"drop-caches" description:"Drop kernel page caches once and exit (debug helper)"`
	DumpState  bool   `long:"dump-state" description:"Print a summary of the persisted model state and exit"`
	Pause      bool   `long:"pause" description:"Write the pause flag file and exit"`
	Resume     bool   `long:"resume" description:"Remove the pause flag file and exit"`
}

var currentCmd Command
var parser = flags.NewParser(&currentCmd, flags.Default)

func main() {
	// A re-exec'd readahead worker never reaches option parsing: it is
	// identified purely by the env vars predictor.DispatchWorkers sets on
	// its ForkExec call, and must exit the instant its partition is done.
	if os.Getenv(predictor.WorkerEnvVar) != "" {
		runWorkerAndExit()
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(); err != nil {
		log.Fatalf("preheatd: %v", err)
	}
}

func runWorkerAndExit() {
	items, err := predictor.ReadPartitionFile(os.Getenv(predictor.WorkerFileEnvVar))
	if err != nil {
		log.Fatalf("preheatd: worker: %v", err)
	}
	predictor.RunWorker(items)
	os.Exit(0)
}

func run() error {
	switch {
	case currentCmd.DropCaches:
		return profiling.FreeCaches()
	case currentCmd.DumpState:
		return dumpState(currentCmd.StateFile)
	case currentCmd.Pause:
		return touchFile(currentCmd.PauseFile)
	case currentCmd.Resume:
		return removeFile(currentCmd.PauseFile)
	}

	cfg := config.Load(currentCmd.Config)
	state := persist.LoadOrEmpty(currentCmd.StateFile)

	lock, err := sched.AcquireLock(currentCmd.LockFile)
	if err != nil {
		if err == sched.ErrAlreadyRunning {
			log.Printf("preheatd: already running, exiting")
			os.Exit(1)
		}
		return err
	}
	defer lock.Release()

	obs := observer.New(cfg)
	pred := predictor.New(cfg, obs.ManualApps)

	sc := sched.New(cfg, state, obs, pred, currentCmd.StateFile)
	sc.PauseFlagPath = currentCmd.PauseFile
	sc.BoostFlagPath = currentCmd.BoostFile

	if !currentCmd.Foreground {
		log.Printf("preheatd: running in the current session; daemonization is handled by the service manager")
	}

	return sc.Run()
}

func dumpState(path string) error {
	st, err := persist.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("exes=%d maps=%d time=%.0f bad_exes=%d families=%d\n",
		st.NumExes(), st.NumMaps(), st.Time, len(st.BadExes), len(st.Families))
	for _, e := range st.AllExes() {
		fmt.Printf("  %s\tpool=%s\tweighted_launches=%.3f\traw_launches=%d\n",
			e.Path, e.Pool, e.WeightedLaunches, e.RawLaunches)
	}
	return nil
}

func touchFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

func removeFile(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
