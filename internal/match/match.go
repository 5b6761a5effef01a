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

// Package match implements the glob/prefix matching used to classify exes
// and maps as excluded or user-app candidates.
package match

import "path/filepath"

// MatchesAny reports whether path matches any of the given glob patterns,
// using POSIX-style fnmatch semantics where '*' does not cross a '/'
// boundary -- exactly filepath.Match's documented behavior.
func MatchesAny(path string, globs []string) bool {
	for _, g := range globs {
		if ok, err := filepath.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}

// UnderAny reports whether path is under any of the given directory
// prefixes, with a directory-boundary check: either the prefix equals
// path exactly, or the character immediately after the prefix in path is
// a '/'. This avoids "/usr/bin2" being considered under prefix "/usr/bin".
func UnderAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if under(path, p) {
			return true
		}
	}
	return false
}

func under(path, prefix string) bool {
	if path == prefix {
		return true
	}
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	return path[len(prefix)] == '/'
}
