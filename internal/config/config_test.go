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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anonymouse64/preheatd/internal/config"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type configTestSuite struct{}

var _ = Suite(&configTestSuite{})

func (s *configTestSuite) TestDefaultsOnMissingFile(c *C) {
	cfg := config.Load(filepath.Join(c.MkDir(), "missing.ini"))
	c.Assert(cfg, DeepEquals, config.Default())
}

func (s *configTestSuite) TestDefaultsOnEmptyPath(c *C) {
	cfg := config.Load("")
	c.Assert(cfg, DeepEquals, config.Default())
}

func (s *configTestSuite) TestParsesValidFile(c *C) {
	p := filepath.Join(c.MkDir(), "preheatd.conf")
	content := `
[model]
cycle = 30
usecorrelation = false
minsize = 4000000
memtotal = -20
memfree = 60
memcached = 5

[system]
doscan = true
dopredict = false
autosave = 1800

[preheat]
maxprocs = 10
sortstrategy = 1
mapprefix = /usr,/opt
exeprefix = /usr/bin,/opt/bin
manualapps = /etc/preheatd/manual-apps
`
	c.Assert(os.WriteFile(p, []byte(content), 0644), IsNil)

	cfg := config.Load(p)
	c.Assert(cfg.Cycle, Equals, 30)
	c.Assert(cfg.UseCorrelation, Equals, false)
	c.Assert(cfg.MinSize, Equals, uint64(4000000))
	c.Assert(cfg.MemTotalPct, Equals, -20)
	c.Assert(cfg.MemFreePct, Equals, 60)
	c.Assert(cfg.MemCachedPct, Equals, 5)
	c.Assert(cfg.DoScan, Equals, true)
	c.Assert(cfg.DoPredict, Equals, false)
	c.Assert(cfg.AutosaveSec, Equals, 1800)
	c.Assert(cfg.MaxProcs, Equals, 10)
	c.Assert(cfg.SortStrategy, Equals, config.SortPath)
	c.Assert(cfg.MapPrefix, DeepEquals, []string{"/usr", "/opt"})
	c.Assert(cfg.ExePrefix, DeepEquals, []string{"/usr/bin", "/opt/bin"})
	c.Assert(cfg.ManualApps, Equals, "/etc/preheatd/manual-apps")
}

func (s *configTestSuite) TestOutOfRangeFallsBackToDefault(c *C) {
	p := filepath.Join(c.MkDir(), "preheatd.conf")
	content := `
[model]
cycle = 1

[preheat]
sortstrategy = 99
`
	c.Assert(os.WriteFile(p, []byte(content), 0644), IsNil)

	cfg := config.Load(p)
	c.Assert(cfg.Cycle, Equals, config.Default().Cycle)
	c.Assert(cfg.SortStrategy, Equals, config.Default().SortStrategy)
}
