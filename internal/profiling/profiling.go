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

package profiling

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/anonymouse64/preheatd/internal/commands"
)

// helper function to make testing easier
var execCommandCombinedOutput = func(prog string, args ...string) ([]byte, error) {
	return exec.Command(prog, args...).CombinedOutput()
}

// helper function to make testing commands that need sudo easier
var runCmdCombinedOutput = func(cmd *exec.Cmd) ([]byte, error) {
	return cmd.CombinedOutput()
}

// MockExecCommand replaces the internal command runner for tests.
func MockExecCommand(f func(prog string, args ...string) ([]byte, error)) (restore func()) {
	old := execCommandCombinedOutput
	execCommandCombinedOutput = f
	return func() {
		execCommandCombinedOutput = old
	}
}

// MockRunCmdCombinedOutput replaces the sudo-aware command runner for tests.
func MockRunCmdCombinedOutput(f func(cmd *exec.Cmd) ([]byte, error)) (restore func()) {
	old := runCmdCombinedOutput
	runCmdCombinedOutput = f
	return func() {
		runCmdCombinedOutput = old
	}
}

// FreeCaches drops the three kernel page-cache levels via sysctl for the
// --drop-caches debug helper, used to get a cold-cache baseline before
// measuring the effect of preheating. Becoming root directly would mean
// setuid or priv-dropping the whole daemon, so this shells out via sudo.
func FreeCaches() error {
	for _, i := range []int{1, 2, 3} {
		cmd := exec.Command("sysctl", "-q", fmt.Sprintf("vm.drop_caches=%d", i))
		if err := commands.AddSudoIfNeeded(cmd); err != nil {
			return err
		}
		out, err := runCmdCombinedOutput(cmd)
		if err != nil {
			log.Println(string(out))
			return err
		}
	}
	return nil
}

// RunScript will run the specified script with args, trying both a script on
// $PATH, as well as from the current working directory for easy
// scripting/measurement from the command line without large paths as arguments
func RunScript(fname string, args []string) error {
	path, err := exec.LookPath(fname)
	if err != nil {
		// try the current directory
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		path = filepath.Join(cwd, fname)
	}
	// path is either the path found with LookPath, or cwd/fname
	_, err = execCommandCombinedOutput(path, args...)
	return err
}
