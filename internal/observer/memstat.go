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
	"github.com/anonymouse64/preheatd/internal/model"
	"github.com/anonymouse64/preheatd/internal/procfs"
)

// ReadMemstat snapshots /proc/meminfo via procfs and converts it into the
// model package's memory-stat shape used by the predictor's RAM budget
// computation.
func ReadMemstat() (model.Memstat, error) {
	m, err := procfs.ReadMemstat()
	if err != nil {
		return model.Memstat{}, err
	}
	return model.Memstat{
		Total:   m.Total,
		Free:    m.Free,
		Cached:  m.Cached,
		Buffers: m.Buffers,
	}, nil
}
