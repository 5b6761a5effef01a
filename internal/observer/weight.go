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

// Package observer drives the per-tick scan/update half-phases: diffing the
// running process set, feeding the model's weighted-launch accounting, and
// evolving markov edges as exes start and stop running.
package observer

import "math"

// Weight computes the incremental contribution of a span of duration
// seconds running to an exe's weighted_launches counter.
func Weight(durationSec float64, userInitiated bool) float64 {
	w := math.Log(1 + durationSec/60)
	if userInitiated {
		w *= 1.0
	} else {
		w *= 0.3
	}
	if durationSec < 5 {
		w *= 0.3
	}
	return w
}
