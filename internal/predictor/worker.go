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
	"bufio"
	"fmt"
	"io/ioutil"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// WorkerEnvVar marks a re-exec'd process as a readahead worker rather than
// the full daemon. WorkerFileEnvVar names the temp file holding its slice
// of the work list. A true fork() without exec isn't available from the Go
// runtime, so the parent re-execs itself (self-image fork+exec) the same
// way any Go daemon spawns copy-on-write-isolated helper processes.
const (
	WorkerEnvVar     = "_PREHEATD_WORKER"
	WorkerFileEnvVar = "_PREHEATD_WORKER_FILE"
)

// WorkItem is a single (path, offset, length) region to call readahead on.
type WorkItem struct {
	Path   string
	Offset uint64
	Length uint64
}

// partition splits items into up to n contiguous, roughly equal groups.
func partition(items []WorkItem, n int) [][]WorkItem {
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}
	if n == 0 {
		return nil
	}
	out := make([][]WorkItem, 0, n)
	per := (len(items) + n - 1) / n
	for start := 0; start < len(items); start += per {
		end := start + per
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// writePartitionFile serializes a partition as tab-separated
// file-uri/offset/length lines into a fresh temp file and returns its path.
func writePartitionFile(items []WorkItem) (string, error) {
	f, err := ioutil.TempFile("", "preheatd-worker-*.tsv")
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, it := range items {
		u := url.URL{Scheme: "file", Path: it.Path}
		fmt.Fprintf(w, "%s\t%d\t%d\n", u.String(), it.Offset, it.Length)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// ReadPartitionFile is the worker-side counterpart of writePartitionFile:
// it recovers the work items assigned to a re-exec'd worker process.
func ReadPartitionFile(path string) ([]WorkItem, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out []WorkItem
	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}
		u, err := url.Parse(fields[0])
		if err != nil || u.Scheme != "file" {
			continue
		}
		offset, err1 := strconv.ParseUint(fields[1], 10, 64)
		length, err2 := strconv.ParseUint(fields[2], 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, WorkItem{Path: u.Path, Offset: offset, Length: length})
	}
	return out, nil
}

// RunWorker issues readahead(2) for every item, ignoring per-file errors.
// This is the entire body of a re-exec'd worker process: it never touches
// the parent's model state, only the kernel page cache.
func RunWorker(items []WorkItem) {
	for _, it := range items {
		fd, err := unix.Open(it.Path, unix.O_RDONLY, 0)
		if err != nil {
			continue
		}
		if err := unix.Readahead(fd, int64(it.Offset), int(it.Length)); err != nil {
			log.Printf("predictor: readahead %s: %v", it.Path, err)
		}
		unix.Close(fd)
	}
}

// DispatchWorkers partitions items across up to maxProcs re-exec'd worker
// processes, waits for all of them within reapTimeout, and SIGKILLs any
// stragglers. The parent synchronously waits on completion before the
// caller advances the virtual clock.
func DispatchWorkers(items []WorkItem, maxProcs int, reapTimeout time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	self, err := os.Executable()
	if err != nil {
		return err
	}

	var pids []int
	var files []string
	for _, part := range partition(items, maxProcs) {
		if len(part) == 0 {
			continue
		}
		file, err := writePartitionFile(part)
		if err != nil {
			log.Printf("predictor: writing worker partition: %v", err)
			continue
		}
		files = append(files, file)

		pid, err := syscall.ForkExec(self, os.Args, &syscall.ProcAttr{
			Env:   append(os.Environ(), WorkerEnvVar+"=1", WorkerFileEnvVar+"="+file),
			Files: []uintptr{0, 1, 2},
		})
		if err != nil {
			log.Printf("predictor: fork worker: %v", err)
			continue
		}
		pids = append(pids, pid)
	}

	reap(pids, reapTimeout)
	for _, f := range files {
		os.Remove(f)
	}
	return nil
}

// reap waits for every pid to exit within timeout, then SIGKILLs any that
// haven't and waits again.
func reap(pids []int, timeout time.Duration) {
	if len(pids) == 0 {
		return
	}
	done := make(chan struct{})
	go func() {
		for _, pid := range pids {
			var ws syscall.WaitStatus
			syscall.Wait4(pid, &ws, 0, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		for _, pid := range pids {
			syscall.Kill(pid, syscall.SIGKILL)
		}
		<-done
	}
}
