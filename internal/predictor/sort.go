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

import (
	"sort"

	"github.com/anonymouse64/preheatd/internal/config"
)

// OrderForDispatch reorders selected candidates per strategy before
// partitioning across workers. This implementation never populates a
// map's device-order block hint (see design notes), so Block and
// BlockThenPath both degrade to path order, same as Path; None keeps
// selection order untouched.
func OrderForDispatch(selected []Candidate, strategy config.SortStrategy) []Candidate {
	if strategy == config.SortNone {
		return selected
	}

	out := make([]Candidate, len(selected))
	copy(out, selected)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Map.Path != out[j].Map.Path {
			return out[i].Map.Path < out[j].Map.Path
		}
		return out[i].Map.Offset < out[j].Map.Offset
	})
	return out
}
