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

// Package commands wraps exec.Cmd construction for the handful of preheatd
// helper binaries (sysctl, and whatever profiling scripts an operator drops
// on PATH) that need a privilege escalation path on a non-root daemon.
package commands

import (
	"fmt"
	"os/exec"
	"os/user"
)

var userCurrent = user.Current

// AddSudoIfNeeded prefixes cmd with sudo (and sudoArgs) when the calling
// process is not root. preheatd itself never runs setuid, so privileged
// one-shot operations like --drop-caches rely on sudo being configured for
// the operator running the daemon.
func AddSudoIfNeeded(cmd *exec.Cmd, sudoArgs ...string) error {
	current, err := userCurrent()
	if err != nil {
		return err
	}
	if current.Uid == "0" {
		return nil
	}

	sudoPath, err := exec.LookPath("sudo")
	if err != nil {
		return fmt.Errorf("preheatd: %s requires root, and sudo is not on PATH: %w", cmd.Path, err)
	}

	cmd.Args = append(
		append([]string{sudoPath}, sudoArgs...),
		cmd.Args...,
	)
	cmd.Path = sudoPath
	return nil
}

// MockUID overrides the detected uid for tests that exercise both the root
// and non-root branches of AddSudoIfNeeded without actually changing user.
func MockUID(uid string) (restore func()) {
	old := userCurrent
	userCurrent = func() (*user.User, error) {
		return &user.User{Uid: uid}, nil
	}
	return func() {
		userCurrent = old
	}
}
