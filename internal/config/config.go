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

// Package config loads the daemon's INI-style key file (sections model,
// system, and the optional preheat section). The daemon never aborts on
// bad config: invalid or out-of-range values are logged and replaced by
// their documented default.
package config

import (
	"log"
	"os"

	"gopkg.in/ini.v1"
)

// SortStrategy selects how the predictor orders selected maps before
// dispatching readahead workers.
type SortStrategy int

const (
	SortNone SortStrategy = iota
	SortPath
	SortBlock
	SortBlockThenPath
)

// Config holds every recognized option from the model/system/preheat
// sections, already validated and defaulted.
type Config struct {
	Cycle          int // tick period in seconds, must be >= 2
	UseCorrelation bool
	MinSize        uint64
	MemTotalPct    int
	MemFreePct     int
	MemCachedPct   int
	DoScan         bool
	DoPredict      bool
	AutosaveSec    int
	MapPrefix      []string
	ExePrefix      []string
	MaxProcs       int
	SortStrategy   SortStrategy
	ManualApps     string // path to a YAML force/ignore list, see internal/observer
	ExcludePattern []string
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		Cycle:          20,
		UseCorrelation: true,
		MinSize:        2_000_000,
		MemTotalPct:    -10,
		MemFreePct:     50,
		MemCachedPct:   0,
		DoScan:         true,
		DoPredict:      true,
		AutosaveSec:    3600,
		MaxProcs:       30,
		SortStrategy:   SortBlockThenPath,
	}
}

// Load reads path as an INI file and returns a fully validated Config.
// A missing file, a parse error, or a value out of range for any
// individual key is logged and the affected key (or the whole config, if
// the file can't be parsed at all) falls back to its default -- the
// daemon never aborts on a config problem.
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		return cfg
	}
	if _, err := os.Stat(path); err != nil {
		log.Printf("config: %s not found, using defaults", path)
		return cfg
	}

	f, err := ini.Load(path)
	if err != nil {
		log.Printf("config: failed to parse %s: %v, using defaults", path, err)
		return cfg
	}

	model := f.Section("model")
	system := f.Section("system")
	preheat := f.Section("preheat")

	cfg.Cycle = clampInt(model, "cycle", cfg.Cycle, 2, 1<<30)
	cfg.UseCorrelation = model.Key("usecorrelation").MustBool(cfg.UseCorrelation)
	cfg.MinSize = uint64(clampInt(model, "minsize", int(cfg.MinSize), 0, 1<<40))
	cfg.MemTotalPct = model.Key("memtotal").MustInt(cfg.MemTotalPct)
	cfg.MemFreePct = model.Key("memfree").MustInt(cfg.MemFreePct)
	cfg.MemCachedPct = model.Key("memcached").MustInt(cfg.MemCachedPct)
	cfg.DoScan = system.Key("doscan").MustBool(cfg.DoScan)
	cfg.DoPredict = system.Key("dopredict").MustBool(cfg.DoPredict)
	cfg.AutosaveSec = clampInt(system, "autosave", cfg.AutosaveSec, 1, 1<<30)
	cfg.MaxProcs = clampInt(preheat, "maxprocs", cfg.MaxProcs, 1, 1024)

	if preheat.HasKey("mapprefix") {
		cfg.MapPrefix = preheat.Key("mapprefix").Strings(",")
	}
	if preheat.HasKey("exeprefix") {
		cfg.ExePrefix = preheat.Key("exeprefix").Strings(",")
	}
	if preheat.HasKey("excludepattern") {
		cfg.ExcludePattern = preheat.Key("excludepattern").Strings(",")
	}

	if preheat.HasKey("sortstrategy") {
		v := preheat.Key("sortstrategy").MustInt(int(cfg.SortStrategy))
		if v < int(SortNone) || v > int(SortBlockThenPath) {
			log.Printf("config: sortstrategy %d out of range, using default", v)
		} else {
			cfg.SortStrategy = SortStrategy(v)
		}
	}

	cfg.ManualApps = preheat.Key("manualapps").MustString(cfg.ManualApps)

	return cfg
}

func clampInt(section *ini.Section, key string, def, min, max int) int {
	if !section.HasKey(key) {
		return def
	}
	v := section.Key(key).MustInt(def)
	if v < min || v > max {
		log.Printf("config: %s=%d out of range [%d,%d], using default %d", key, v, min, max, def)
		return def
	}
	return v
}
