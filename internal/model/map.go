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

// Package model implements the persistent graph of executables, file-region
// maps, exe<->map associations and pairwise markov correlations.
package model

// Map is a file region, shared by reference among the exes that mention it.
// Two maps with equal Path/Offset/Length are the same map.
type Map struct {
	Path   string
	Offset uint64
	Length uint64

	Seq            uint64
	LastUpdateTime float64

	// Block is a transient device-order sort hint populated only during
	// predict; -1 means unset. Never persisted.
	Block int64

	refcount int
}

type mapKey struct {
	path   string
	offset uint64
	length uint64
}

func (m *Map) key() mapKey {
	return mapKey{path: m.Path, offset: m.Offset, length: m.Length}
}

// Refcount returns the number of exemaps currently referencing this map.
func (m *Map) Refcount() int {
	return m.refcount
}
