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
	"fmt"
	"hash/crc32"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anonymouse64/preheatd/internal/files"
	"github.com/anonymouse64/preheatd/internal/model"
)

// LoadOrEmpty loads the state file at path, returning a fresh empty state
// if the file does not exist. Any other load failure is treated as
// corruption: the bad file is renamed aside as path.broken.<timestamp> and
// an empty state is returned, so the daemon always starts up rather than
// refusing to run over a damaged cache.
func LoadOrEmpty(path string) *model.State {
	st, err := Load(path)
	if err == nil {
		return st
	}
	if os.IsNotExist(err) {
		return model.New()
	}
	log.Printf("persist: %s is corrupt, resetting: %v", path, err)
	brokenPath := fmt.Sprintf("%s.broken.%d", path, time.Now().Unix())
	if renameErr := os.Rename(path, brokenPath); renameErr != nil {
		log.Printf("persist: failed to rename corrupt state file aside: %v", renameErr)
		files.EnsureFileIsDeleted(path)
	}
	return model.New()
}

// Load parses the state file at path. A non-existent file is reported via
// the wrapped os.IsNotExist error; any other parse failure indicates the
// file is corrupt or was written by an incompatible major version.
func Load(path string) (*model.State, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func parse(raw []byte) (*model.State, error) {
	text := string(raw)
	if len(strings.TrimSpace(text)) == 0 {
		return nil, errEmptyFile
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) < 2 {
		return nil, errMalformedFooter
	}

	footer := lines[len(lines)-1]
	body := strings.Join(lines[:len(lines)-1], "\n") + "\n"

	footerFields := strings.Split(footer, "\t")
	if len(footerFields) != 2 || footerFields[0] != "CRC32" {
		return nil, errMalformedFooter
	}
	wantCRC, err := strconv.ParseUint(footerFields[1], 16, 32)
	if err != nil {
		return nil, errMalformedFooter
	}
	if crc32.ChecksumIEEE([]byte(body)) != uint32(wantCRC) {
		return nil, errCRCMismatch
	}

	st := model.New()

	fileMaps := make(map[uint64]*model.Map)
	fileExes := make(map[uint64]*model.Exe)

	bodyLines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(bodyLines) == 0 || !strings.HasPrefix(bodyLines[0], "PRELOAD\t") {
		return nil, errBadHeader
	}

	for i, line := range bodyLines {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		tag := fields[0]
		args := fields[1:]

		switch tag {
		case "PRELOAD":
			if i != 0 || len(args) < 2 {
				return nil, errBadHeader
			}
			major, err := majorVersion(args[0])
			if err != nil {
				return nil, err
			}
			wantMajor, _ := majorVersion(FormatVersion)
			if major != wantMajor {
				return nil, errVersionMismatch
			}
			t, err := parseFloat(args[1])
			if err != nil {
				return nil, fmt.Errorf("persist: malformed PRELOAD time: %v", err)
			}
			st.Time = t

		case "MAP":
			if len(args) < 6 {
				return nil, fmt.Errorf("persist: malformed MAP line: %q", line)
			}
			seq, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return nil, err
			}
			lastUpdate, err := parseFloat(args[1])
			if err != nil {
				return nil, err
			}
			offset, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return nil, err
			}
			length, err := strconv.ParseUint(args[3], 10, 64)
			if err != nil {
				return nil, err
			}
			mpath, err := fromFileURI(args[5])
			if err != nil {
				return nil, err
			}
			m, _ := st.GetOrCreateMap(mpath, offset, length)
			m.LastUpdateTime = lastUpdate
			fileMaps[seq] = m

		case "BADEXE":
			if len(args) < 3 {
				return nil, fmt.Errorf("persist: malformed BADEXE line: %q", line)
			}
			bpath, err := fromFileURI(args[2])
			if err != nil {
				return nil, err
			}
			st.BadExes[bpath] = true

		case "EXE":
			e, seq, err := parseExeLine(args)
			if err != nil {
				return nil, err
			}
			registered, rerr := st.RegisterExe(e.Path, e.Pool)
			if rerr != nil {
				return nil, rerr
			}
			registered.ChangeTimestamp = e.ChangeTimestamp
			registered.Time = e.Time
			registered.WeightedLaunches = e.WeightedLaunches
			registered.RawLaunches = e.RawLaunches
			registered.TotalDurationSec = e.TotalDurationSec
			fileExes[seq] = registered

		case "EXEMAP":
			if len(args) < 3 {
				return nil, fmt.Errorf("persist: malformed EXEMAP line: %q", line)
			}
			exeSeq, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return nil, err
			}
			mapSeq, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return nil, err
			}
			prob, err := parseFloat(args[2])
			if err != nil {
				return nil, err
			}
			exe, ok := fileExes[exeSeq]
			if !ok {
				return nil, fmt.Errorf("persist: EXEMAP references unknown exe seq %d", exeSeq)
			}
			m, ok := fileMaps[mapSeq]
			if !ok {
				return nil, fmt.Errorf("persist: EXEMAP references unknown map seq %d", mapSeq)
			}
			st.AttachExemap(exe, m, prob)

		case "MARKOV":
			if err := parseMarkovLine(st, fileExes, args); err != nil {
				return nil, err
			}

		case "FAMILY":
			if len(args) < 3 {
				return nil, fmt.Errorf("persist: malformed FAMILY line: %q", line)
			}
			st.Families = append(st.Families, &model.Family{
				ID:     args[0],
				Method: args[1],
				Paths:  strings.Split(args[2], ";"),
			})

		default:
			return nil, fmt.Errorf("persist: unknown record tag %q", tag)
		}
	}

	return st, nil
}

// parseExeLine tolerates the legacy 5 and 6 field EXE formats (no
// weighted-launches/raw-launches/duration columns yet) in addition to the
// current 9 field format, defaulting the accounting fields that the
// shorter formats omit to zero.
func parseExeLine(args []string) (*model.Exe, uint64, error) {
	if len(args) != 5 && len(args) != 6 && len(args) != 9 {
		return nil, 0, fmt.Errorf("persist: malformed EXE line with %d fields", len(args))
	}

	seq, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return nil, 0, err
	}
	changeTimestamp, err := parseFloat(args[1])
	if err != nil {
		return nil, 0, err
	}
	updateTime, err := parseFloat(args[2])
	if err != nil {
		return nil, 0, err
	}

	e := &model.Exe{
		Seq:             seq,
		ChangeTimestamp: changeTimestamp,
		Time:            updateTime,
		Pool:            model.PoolObservation,
	}

	switch len(args) {
	case 5:
		// legacy: seq, changets, updatetime, block(-1), path
		if args[3] == "priority" {
			e.Pool = model.PoolPriority
		}
		p, err := fromFileURI(args[4])
		if err != nil {
			return nil, 0, err
		}
		e.Path = p
	case 6:
		// legacy: seq, changets, updatetime, block(-1), pool, path
		if args[4] == "priority" {
			e.Pool = model.PoolPriority
		}
		p, err := fromFileURI(args[5])
		if err != nil {
			return nil, 0, err
		}
		e.Path = p
	case 9:
		if args[4] == "priority" {
			e.Pool = model.PoolPriority
		}
		wl, err := parseFloat(args[5])
		if err != nil {
			return nil, 0, err
		}
		rl, err := strconv.ParseUint(args[6], 10, 64)
		if err != nil {
			return nil, 0, err
		}
		dur, err := strconv.ParseUint(args[7], 10, 64)
		if err != nil {
			return nil, 0, err
		}
		p, err := fromFileURI(args[8])
		if err != nil {
			return nil, 0, err
		}
		e.WeightedLaunches = wl
		e.RawLaunches = rl
		e.TotalDurationSec = dur
		e.Path = p
	}

	return e, seq, nil
}

func parseMarkovLine(st *model.State, fileExes map[uint64]*model.Exe, args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("persist: malformed MARKOV line")
	}
	aSeq, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return err
	}
	bSeq, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return err
	}
	t, err := parseFloat(args[2])
	if err != nil {
		return err
	}
	a, ok := fileExes[aSeq]
	if !ok {
		return fmt.Errorf("persist: MARKOV references unknown exe seq %d", aSeq)
	}
	b, ok := fileExes[bSeq]
	if !ok {
		return fmt.Errorf("persist: MARKOV references unknown exe seq %d", bSeq)
	}

	m, err := st.LinkMarkov(a, b, st.Time)
	if err != nil {
		return err
	}
	m.Time = t

	ttlFields := strings.Split(args[3], ",")
	if len(ttlFields) != 4 {
		return fmt.Errorf("persist: malformed MARKOV time-to-leave field")
	}
	for i, f := range ttlFields {
		v, err := parseFloat(f)
		if err != nil {
			return err
		}
		m.TimeToLeave[i] = v
	}

	weightFields := strings.Split(args[4], ",")
	if len(weightFields) != 16 {
		return fmt.Errorf("persist: malformed MARKOV weight field")
	}
	for idx, f := range weightFields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return err
		}
		m.Weight[idx/4][idx%4] = v
	}

	return nil
}
