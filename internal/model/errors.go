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

package model

import "errors"

var (
	errSameExe         = errors.New("model: markov edge endpoints must differ")
	errDuplicateMarkov = errors.New("model: markov edge already exists for this pair")
	// ErrDuplicateExe is returned by RegisterExe when the path is already known.
	ErrDuplicateExe = errors.New("model: exe already registered")
)
