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
	"github.com/anonymouse64/preheatd/internal/config"
	"github.com/anonymouse64/preheatd/internal/match"
	"github.com/anonymouse64/preheatd/internal/model"
)

// DesktopFileChecker reports whether path has an associated desktop-file
// entry. Desktop-entry discovery is a non-goal of the core itself; callers
// wire in a real checker from outside, or leave it nil (always false).
type DesktopFileChecker func(path string) bool

// shellsTerminalsLaunchers is the fixed set of parent process names that
// mark a child as user-initiated. Containerized/snap processes whose real
// parent is a confinement helper fall back to the desktop-file check.
var shellsTerminalsLaunchers = map[string]bool{
	"bash": true, "sh": true, "dash": true, "zsh": true, "fish": true, "ksh": true,
	"tcsh": true, "csh": true,
	"gnome-terminal-": true, "gnome-terminal": true, "konsole": true,
	"xterm": true, "alacritty": true, "tilix": true, "terminator": true,
	"gnome-shell": true, "plasmashell": true, "nautilus": true,
	"gmenudbusmenupro": true, "systemd": true, "init": true,
}

// IsUserInitiated decides whether a newly observed pid counts as
// user-initiated for weighted-launch accounting purposes.
func IsUserInitiated(parentComm, path string, desktop DesktopFileChecker) bool {
	if shellsTerminalsLaunchers[parentComm] {
		return true
	}
	return desktop != nil && desktop(path)
}

// ClassifyPool assigns path to the observation or priority pool.
func ClassifyPool(path string, cfg config.Config, manualApps map[string]bool, desktop DesktopFileChecker) model.Pool {
	if match.MatchesAny(path, cfg.ExcludePattern) {
		return model.PoolObservation
	}
	if forced, listed := manualApps[path]; listed && !forced {
		return model.PoolObservation
	}
	if match.UnderAny(path, cfg.ExePrefix) {
		return model.PoolPriority
	}
	if desktop != nil && desktop(path) {
		return model.PoolPriority
	}
	if manualApps[path] {
		return model.PoolPriority
	}
	return model.PoolObservation
}
