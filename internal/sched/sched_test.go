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

package sched_test

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/anonymouse64/preheatd/internal/config"
	"github.com/anonymouse64/preheatd/internal/model"
	"github.com/anonymouse64/preheatd/internal/observer"
	"github.com/anonymouse64/preheatd/internal/predictor"
	"github.com/anonymouse64/preheatd/internal/procfs"
	"github.com/anonymouse64/preheatd/internal/sched"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type schedTestSuite struct {
	dir string
}

var _ = Suite(&schedTestSuite{})

func (s *schedTestSuite) SetUpTest(c *C) {
	s.dir = c.MkDir()
}

// TestSecondInstanceRejectedQuickly reproduces scenario 6: a second daemon
// attempting to acquire the same PID lock must fail within a bound well
// under 100ms and must never touch the state file.
func (s *schedTestSuite) TestSecondInstanceRejectedQuickly(c *C) {
	lockPath := filepath.Join(s.dir, "preheatd.pid")

	first, err := sched.AcquireLock(lockPath)
	c.Assert(err, IsNil)
	defer first.Release()

	start := time.Now()
	_, err = sched.AcquireLock(lockPath)
	elapsed := time.Since(start)

	c.Assert(err, Equals, sched.ErrAlreadyRunning)
	c.Assert(elapsed < 100*time.Millisecond, Equals, true)
}

func (s *schedTestSuite) TestLockReleaseAllowsReacquire(c *C) {
	lockPath := filepath.Join(s.dir, "preheatd.pid")

	l, err := sched.AcquireLock(lockPath)
	c.Assert(err, IsNil)
	c.Assert(l.Release(), IsNil)

	l2, err := sched.AcquireLock(lockPath)
	c.Assert(err, IsNil)
	defer l2.Release()
}

func (s *schedTestSuite) TestPauseFlagFile(c *C) {
	path := filepath.Join(s.dir, "pause")
	c.Assert(sched.IsPaused(path), Equals, false)
	c.Assert(ioutil.WriteFile(path, nil, 0644), IsNil)
	c.Assert(sched.IsPaused(path), Equals, true)
}

func (s *schedTestSuite) TestBoostFlagExpiry(c *C) {
	path := filepath.Join(s.dir, "boost")
	past := time.Now().Add(-time.Hour).Unix()
	c.Assert(ioutil.WriteFile(path, []byte(itoa(past)), 0644), IsNil)
	c.Assert(sched.IsBoosted(path), Equals, false)

	future := time.Now().Add(time.Hour).Unix()
	c.Assert(ioutil.WriteFile(path, []byte(itoa(future)), 0644), IsNil)
	c.Assert(sched.IsBoosted(path), Equals, true)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [32]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// TestTickAdvancesVirtualClockAndAutosaves checks that Tick advances the
// virtual clock by exactly cycle/2 regardless of wall time, and that a
// dirty model is autosaved once the cadence elapses.
func (s *schedTestSuite) TestTickAdvancesVirtualClockAndAutosaves(c *C) {
	restore := procfs.SetRoot(c.MkDir())
	defer restore()

	cfg := config.Default()
	cfg.Cycle = 20
	cfg.AutosaveSec = 10
	cfg.DoPredict = false

	st := model.New()
	obs := observer.New(cfg)
	pred := predictor.New(cfg, nil)

	statePath := filepath.Join(s.dir, "preload.state")
	sc := sched.New(cfg, st, obs, pred, statePath)

	sc.Tick()
	c.Assert(st.Time, Equals, 10.0)

	st.RegisterExe("/usr/bin/a", model.PoolObservation)
	c.Assert(st.ModelDirty, Equals, true)

	sc.Tick()
	c.Assert(st.Time, Equals, 20.0)

	_, err := ioutil.ReadFile(statePath)
	c.Assert(err, IsNil)
	c.Assert(st.ModelDirty, Equals, false)
}
