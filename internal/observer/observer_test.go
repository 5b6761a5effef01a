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

package observer_test

import (
	"os"
	"path/filepath"

	"github.com/anonymouse64/preheatd/internal/config"
	"github.com/anonymouse64/preheatd/internal/model"
	"github.com/anonymouse64/preheatd/internal/observer"
	"github.com/anonymouse64/preheatd/internal/procfs"
	. "gopkg.in/check.v1"
)

func writeFile(c *C, path, content string) {
	c.Assert(os.MkdirAll(filepath.Dir(path), 0755), IsNil)
	c.Assert(os.WriteFile(path, []byte(content), 0644), IsNil)
}

// seedProcess lays out a fake /proc/<pid> directory for a process whose
// resolved exe is exePath and whose parent pid is a shell (user-initiated).
func seedProcess(c *C, root string, pid int, exePath string) {
	pidDir := filepath.Join(root, itoa(pid))
	c.Assert(os.MkdirAll(pidDir, 0755), IsNil)
	c.Assert(os.Symlink(exePath, filepath.Join(pidDir, "exe")), IsNil)
	writeFile(c, filepath.Join(pidDir, "stat"),
		itoa(pid)+" ("+filepath.Base(exePath)+") S 1 "+itoa(pid)+" "+itoa(pid)+" 0 -1 4194304 0 0 0 0 0 0 0 0 20 0 1 0\n")
	writeFile(c, filepath.Join(pidDir, "maps"),
		"00400000-00410000 r-xp 00000000 08:02 173521 "+exePath+"\n")

	shellDir := filepath.Join(root, "1")
	if _, err := os.Stat(shellDir); err != nil {
		writeFile(c, filepath.Join(shellDir, "comm"), "bash\n")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

type observerScenarioSuite struct{}

var _ = Suite(&observerScenarioSuite{})

// TestColdStartOneLaunch reproduces the cold-start scenario: an empty
// model observes /bin/cat running, observed running across two more
// half-ticks, then gone at the fourth. It checks raw_launches, a positive
// weighted_launches accrual, and total_duration_sec landing at 3*cycle/2.
func (s *observerScenarioSuite) TestColdStartOneLaunch(c *C) {
	root := c.MkDir()
	restore := procfs.SetRoot(root)
	defer restore()

	cfg := config.Default()
	cfg.Cycle = 20
	cfg.MinSize = 0
	o := observer.New(cfg)
	st := model.New()

	half := float64(cfg.Cycle) / 2 // 10

	seedProcess(c, root, 1000, "/bin/cat")
	newExes := o.Scan(st, 0)
	c.Assert(newExes, DeepEquals, map[string]int{"/bin/cat": 1000})
	o.Update(st, newExes, half/2)

	exe, ok := st.LookupExe("/bin/cat")
	c.Assert(ok, Equals, true)
	c.Assert(exe.RawLaunches, Equals, uint64(1))
	c.Assert(exe.Running(), Equals, true)

	// still running at the next two half-ticks.
	o.Scan(st, half)
	o.Scan(st, 2*half)

	// gone by the fourth.
	c.Assert(os.RemoveAll(filepath.Join(root, "1000")), IsNil)
	o.Scan(st, 3*half)

	c.Assert(exe.Running(), Equals, false)
	c.Assert(exe.TotalDurationSec, Equals, uint64(3*half))
	c.Assert(exe.WeightedLaunches > 0, Equals, true)

	for _, err := range st.CheckInvariants() {
		c.Errorf("invariant violated: %v", err)
	}
}

// TestPriorityPoolMeshFullyConnected seeds several priority-pool exes and
// checks that after Update every pair has a markov edge.
func (s *observerScenarioSuite) TestPriorityPoolMeshFullyConnected(c *C) {
	root := c.MkDir()
	restore := procfs.SetRoot(root)
	defer restore()

	cfg := config.Default()
	cfg.MinSize = 0
	cfg.ExePrefix = []string{"/usr/bin"}
	o := observer.New(cfg)
	st := model.New()

	paths := []string{"/usr/bin/a", "/usr/bin/b", "/usr/bin/c"}
	for i, p := range paths {
		seedProcess(c, root, 2000+i, p)
	}

	newExes := o.Scan(st, 0)
	o.Update(st, newExes, 1)

	for _, p := range paths {
		exe, ok := st.LookupExe(p)
		c.Assert(ok, Equals, true)
		c.Assert(exe.Pool, Equals, model.PoolPriority)
		c.Assert(len(exe.Markovs), Equals, len(paths)-1)
	}

	for _, err := range st.CheckInvariants() {
		c.Errorf("invariant violated: %v", err)
	}
}
