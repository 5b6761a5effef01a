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

// Package files holds small filesystem helpers shared by the state-file
// writer, the PID lock, and the test suites that exercise both -- none of
// it is specific to page-cache warming, it just needs to be correct and
// reused rather than re-implemented in three packages.
package files

import (
	"os"
	"path/filepath"
)

func exists(fname string) bool {
	info, err := os.Stat(fname)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureExistsAndOpen opens fname for appending, creating it first if it's
// missing. When delete is true an existing file is removed and recreated
// empty instead of appended to.
func EnsureExistsAndOpen(fname string, delete bool) (*os.File, error) {
	switch {
	case exists(fname) && delete:
		if err := os.Remove(fname); err != nil {
			return nil, err
		}
		return os.Create(fname)
	case exists(fname):
		return os.OpenFile(fname, os.O_WRONLY|os.O_APPEND, 0644)
	default:
		return os.Create(fname)
	}
}

// EnsureFileIsDeleted removes fname if present; a missing file is not an
// error, since the caller's intent ("this file should not exist") is
// already satisfied.
func EnsureFileIsDeleted(fname string) error {
	if exists(fname) {
		return os.Remove(fname)
	}
	return nil
}

// EnsureParentDir creates the directory holding fname, and any missing
// ancestors, so a first run against a fresh /var/lib or /run tree doesn't
// fail just because nothing has created the directory yet.
func EnsureParentDir(fname string) error {
	dir := filepath.Dir(fname)
	if dir == "." || dir == "/" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
