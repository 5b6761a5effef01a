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
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

// manualAppsDoc is the on-disk schema for the manual-apps file: a flat set
// of absolute paths forced into the priority pool, plus an optional set of
// paths explicitly excluded even if the classifier would otherwise promote
// them.
type manualAppsDoc struct {
	Force  []string `yaml:"force"`
	Ignore []string `yaml:"ignore"`
}

// loadManualApps reads the YAML-formatted manual-apps file at path and
// returns the set of forced paths, keyed for O(1) membership checks. Ignored
// paths are recorded as explicit false entries so a lookup can distinguish
// "never classified" from "classified and suppressed". A missing or
// unreadable file is logged and treated as an empty list -- the daemon never
// aborts on config.
func loadManualApps(path string) map[string]bool {
	out := make(map[string]bool)
	if path == "" {
		return out
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("observer: manual-apps list %s: %v", path, err)
		}
		return out
	}

	var doc manualAppsDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		log.Printf("observer: manual-apps list %s: invalid yaml: %v", path, err)
		return out
	}

	for _, p := range doc.Force {
		out[p] = true
	}
	for _, p := range doc.Ignore {
		out[p] = false
	}
	return out
}
