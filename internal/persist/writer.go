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

package persist

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"os"
	"sort"
	"strings"

	"github.com/anonymouse64/preheatd/internal/files"
	"github.com/anonymouse64/preheatd/internal/model"
)

// Save writes state to path atomically: the body is built in memory, a
// CRC32 footer is appended, then the whole thing is written to a sibling
// temp file (O_CREAT|O_TRUNC|O_NOFOLLOW, mode 0600), fsynced, and renamed
// over the live file.
func Save(state *model.State, path string) error {
	if err := files.EnsureParentDir(path); err != nil {
		return err
	}

	body := buildBody(state)

	var out bytes.Buffer
	out.Write(body)
	fmt.Fprintf(&out, "CRC32\t%08x\n", crc32.ChecksumIEEE(body))

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_NOFOLLOW, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(out.Bytes()); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func buildBody(state *model.State) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "PRELOAD\t%s\t%s\n", FormatVersion, formatFloat(state.Time))

	maps := state.AllMaps()
	sort.Slice(maps, func(i, j int) bool { return maps[i].Seq < maps[j].Seq })
	for _, m := range maps {
		fmt.Fprintf(&buf, "MAP\t%d\t%s\t%d\t%d\t-1\t%s\n",
			m.Seq, formatFloat(m.LastUpdateTime), m.Offset, m.Length, toFileURI(m.Path))
	}

	badExes := make([]string, 0, len(state.BadExes))
	for p := range state.BadExes {
		badExes = append(badExes, p)
	}
	sort.Strings(badExes)
	for _, p := range badExes {
		fmt.Fprintf(&buf, "BADEXE\t%s\t-1\t%s\n", formatFloat(state.Time), toFileURI(p))
	}

	exes := state.AllExes()
	sort.Slice(exes, func(i, j int) bool { return exes[i].Seq < exes[j].Seq })
	for _, e := range exes {
		fmt.Fprintf(&buf, "EXE\t%d\t%s\t%s\t-1\t%s\t%s\t%d\t%d\t%s\n",
			e.Seq, formatFloat(e.ChangeTimestamp), formatFloat(e.Time), e.Pool.String(),
			formatFloat(e.WeightedLaunches), e.RawLaunches, e.TotalDurationSec, toFileURI(e.Path))

		emSeqs := make([]uint64, 0, len(e.Exemaps))
		for seq := range e.Exemaps {
			emSeqs = append(emSeqs, seq)
		}
		sort.Slice(emSeqs, func(i, j int) bool { return emSeqs[i] < emSeqs[j] })
		for _, seq := range emSeqs {
			em := e.Exemaps[seq]
			fmt.Fprintf(&buf, "EXEMAP\t%d\t%d\t%s\n", e.Seq, em.Map.Seq, formatFloat(em.Prob))
		}
	}

	writtenMarkov := make(map[*model.Markov]bool)
	for _, e := range exes {
		peerPaths := make([]string, 0, len(e.Markovs))
		for peerPath := range e.Markovs {
			peerPaths = append(peerPaths, peerPath)
		}
		sort.Strings(peerPaths)
		for _, peerPath := range peerPaths {
			m := e.Markovs[peerPath]
			if writtenMarkov[m] {
				continue
			}
			writtenMarkov[m] = true
			fmt.Fprintf(&buf, "MARKOV\t%d\t%d\t%s\t%s\t%s\n",
				m.A.Seq, m.B.Seq, formatFloat(m.Time), joinFloats(m.TimeToLeave[:]), joinWeights(m.Weight))
		}
	}

	for _, fam := range state.Families {
		fmt.Fprintf(&buf, "FAMILY\t%s\t%s\t%s\n", fam.ID, fam.Method, strings.Join(fam.Paths, ";"))
	}

	return buf.Bytes()
}

func joinFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = formatFloat(f)
	}
	return strings.Join(parts, ",")
}

func joinWeights(w [4][4]uint64) string {
	parts := make([]string, 0, 16)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			parts = append(parts, fmt.Sprintf("%d", w[i][j]))
		}
	}
	return strings.Join(parts, ",")
}
