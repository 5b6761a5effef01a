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
	"io/ioutil"
	"path/filepath"
	"testing"

	"gopkg.in/check.v1"
)

func TestManualApps(t *testing.T) { check.TestingT(t) }

type manualAppsSuite struct{}

var _ = check.Suite(&manualAppsSuite{})

func (s *manualAppsSuite) TestEmptyPath(c *check.C) {
	c.Assert(loadManualApps(""), check.HasLen, 0)
}

func (s *manualAppsSuite) TestMissingFile(c *check.C) {
	apps := loadManualApps(filepath.Join(c.MkDir(), "does-not-exist.yaml"))
	c.Assert(apps, check.HasLen, 0)
}

func (s *manualAppsSuite) TestForceAndIgnore(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "manual-apps.yaml")
	doc := "force:\n  - /usr/bin/my-game\n  - /opt/acme/launcher\nignore:\n  - /usr/bin/noisy-helper\n"
	c.Assert(ioutil.WriteFile(path, []byte(doc), 0644), check.IsNil)

	apps := loadManualApps(path)
	c.Assert(apps["/usr/bin/my-game"], check.Equals, true)
	c.Assert(apps["/opt/acme/launcher"], check.Equals, true)
	ignored, ok := apps["/usr/bin/noisy-helper"]
	c.Assert(ok, check.Equals, true)
	c.Assert(ignored, check.Equals, false)
}

func (s *manualAppsSuite) TestInvalidYaml(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "manual-apps.yaml")
	c.Assert(ioutil.WriteFile(path, []byte("force: [this is not valid"), 0644), check.IsNil)
	c.Assert(loadManualApps(path), check.HasLen, 0)
}
