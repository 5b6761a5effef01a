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

package sched

import (
	"io/ioutil"
	"strconv"
	"strings"
	"time"
)

// IsPaused reports whether the pause flag file at path is present and, if
// it contains a unix expiry timestamp, not yet expired. An empty file, a 0
// timestamp or unparsable content pauses for as long as the file exists.
// Anything richer (schedules, reasons) lives in the external control tool
// that manages the file, not in the daemon.
func IsPaused(path string) bool {
	if path == "" {
		return false
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return false
	}
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return true
	}
	expiry, err := strconv.ParseInt(s, 10, 64)
	if err != nil || expiry == 0 {
		return true
	}
	return time.Now().Unix() < expiry
}

// IsBoosted reports whether the session-boost flag file at path is present
// and, if it contains a unix timestamp, not yet expired. An empty or
// unparsable file is treated as an unconditional boost.
func IsBoosted(path string) bool {
	if path == "" {
		return false
	}
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return false
	}
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return true
	}
	expiry, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return true
	}
	return time.Now().Unix() < expiry
}
