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

// Package persist reads and writes the daemon's text-tagged state file: one
// record per line, tab-separated fields after the tag, a CRC32 footer, and
// atomic temp-file-then-rename saves.
package persist

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FormatVersion is the semver written in the PRELOAD header. Only its
// major component is checked on load.
const FormatVersion = "1.0.0"

var (
	errEmptyFile       = errors.New("persist: empty state file")
	errMalformedFooter = errors.New("persist: malformed CRC32 footer")
	errCRCMismatch     = errors.New("persist: CRC32 mismatch")
	errBadHeader       = errors.New("persist: missing or malformed PRELOAD header")
	errVersionMismatch = errors.New("persist: state file major version mismatch")
)

func majorVersion(semver string) (string, error) {
	parts := strings.SplitN(semver, ".", 2)
	if len(parts) == 0 || parts[0] == "" {
		return "", fmt.Errorf("persist: malformed version %q", semver)
	}
	return parts[0], nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// toFileURI encodes an absolute path as a file:// URI so embedded
// whitespace and tabs survive the tab-separated line format.
func toFileURI(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

// fromFileURI decodes a file:// URI back to an absolute path.
func fromFileURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("persist: expected file:// URI, got %q", uri)
	}
	return u.Path, nil
}
