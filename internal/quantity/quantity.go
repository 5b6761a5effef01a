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

// Package quantity formats byte counts for log lines, reusing snapd's
// gadget/quantity.Size the same way the teacher formats snap sizes.
package quantity

import "github.com/snapcore/snapd/gadget/quantity"

// Bytes formats n bytes as a human-readable IEC size (e.g. "512 MiB"),
// used in log lines for the predict budget and for map/exe sizes.
func Bytes(n uint64) string {
	return quantity.Size(n).IECString()
}
