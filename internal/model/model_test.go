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

package model_test

import (
	"testing"

	"github.com/anonymouse64/preheatd/internal/model"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type modelTestSuite struct {
	s *model.State
}

var _ = Suite(&modelTestSuite{})

func (t *modelTestSuite) SetUpTest(c *C) {
	t.s = model.New()
}

func (t *modelTestSuite) TestRegisterExeAssignsSeq(c *C) {
	a, err := t.s.RegisterExe("/bin/a", model.PoolObservation)
	c.Assert(err, IsNil)
	b, err := t.s.RegisterExe("/bin/b", model.PoolPriority)
	c.Assert(err, IsNil)
	c.Assert(a.Seq, Not(Equals), b.Seq)

	_, err = t.s.RegisterExe("/bin/a", model.PoolObservation)
	c.Assert(err, Equals, model.ErrDuplicateExe)
}

func (t *modelTestSuite) TestSharedMapRefcounting(c *C) {
	a, _ := t.s.RegisterExe("/usr/bin/A", model.PoolPriority)
	b, _ := t.s.RegisterExe("/usr/bin/B", model.PoolPriority)

	t.s.AddExemap(a, "/lib/libc", 0, 1800000, 1.0)
	t.s.AddExemap(b, "/lib/libc", 0, 1800000, 1.0)

	c.Assert(t.s.NumMaps(), Equals, 1)
	m := t.s.AllMaps()[0]
	c.Assert(m.Refcount(), Equals, 2)
	c.Assert(m.Length, Equals, uint64(1800000))

	c.Assert(t.s.CheckInvariants(), HasLen, 0)

	t.s.RemoveExemap(a, m.Seq)
	c.Assert(m.Refcount(), Equals, 1)
	c.Assert(t.s.NumMaps(), Equals, 1)

	t.s.RemoveExemap(b, m.Seq)
	c.Assert(t.s.NumMaps(), Equals, 0)
}

func (t *modelTestSuite) TestMarkovTwinRegistration(c *C) {
	a, _ := t.s.RegisterExe("/bin/a", model.PoolPriority)
	b, _ := t.s.RegisterExe("/bin/b", model.PoolPriority)

	m, err := t.s.LinkMarkov(a, b, 0)
	c.Assert(err, IsNil)
	c.Assert(a.Markovs["/bin/b"], Equals, m)
	c.Assert(b.Markovs["/bin/a"], Equals, m)
	c.Assert(m.Peer(a), Equals, b)
	c.Assert(m.Peer(b), Equals, a)

	_, err = t.s.LinkMarkov(a, b, 0)
	c.Assert(err, Not(IsNil))

	_, err = t.s.LinkMarkov(a, a, 0)
	c.Assert(err, Not(IsNil))

	c.Assert(t.s.CheckInvariants(), HasLen, 0)

	t.s.UnlinkMarkov(m)
	c.Assert(a.Markovs, HasLen, 0)
	c.Assert(b.Markovs, HasLen, 0)
}

func (t *modelTestSuite) TestRunningSetMembership(c *C) {
	a, _ := t.s.RegisterExe("/bin/a", model.PoolObservation)
	c.Assert(a.Running(), Equals, false)
	c.Assert(t.s.IsRunning(a), Equals, false)

	t.s.MarkRunning(a, &model.ProcInfo{Pid: 1000})
	c.Assert(a.Running(), Equals, true)
	c.Assert(t.s.IsRunning(a), Equals, true)
	c.Assert(t.s.CheckInvariants(), HasLen, 0)

	t.s.MarkExited(a, 1000)
	c.Assert(a.Running(), Equals, false)
	c.Assert(t.s.IsRunning(a), Equals, false)
	c.Assert(t.s.CheckInvariants(), HasLen, 0)
}

func (t *modelTestSuite) TestExeSize(c *C) {
	a, _ := t.s.RegisterExe("/bin/a", model.PoolPriority)
	t.s.AddExemap(a, "/bin/a", 0, 100, 1.0)
	t.s.AddExemap(a, "/lib/libc", 0, 200, 1.0)
	c.Assert(a.Size(), Equals, uint64(300))
}
