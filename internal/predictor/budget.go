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

package predictor

import "github.com/anonymouse64/preheatd/internal/model"

// Budget computes the available preload budget in bytes:
// B = max(0, memfree_pct*free + memtotal_pct*total + memcached_pct*cached).
// Percentages are signed; a negative contribution subtracts from the
// budget. A zero result disables preloading for the tick.
func Budget(memTotalPct, memFreePct, memCachedPct int, mem model.Memstat) uint64 {
	b := float64(memFreePct)/100*float64(mem.Free) +
		float64(memTotalPct)/100*float64(mem.Total) +
		float64(memCachedPct)/100*float64(mem.Cached)
	if b < 0 {
		return 0
	}
	return uint64(b)
}
