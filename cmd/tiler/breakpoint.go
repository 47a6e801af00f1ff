package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/RoninZc/tiler/cell"
	"github.com/RoninZc/tiler/config"
)

// BreakPoint appends saved tile ids to a log so an interrupted export can
// resume without rewriting them.
type BreakPoint struct {
	file     *os.File
	saveChan chan cell.ID
	done     map[string]struct{}
	mu       sync.Mutex
	closed   bool
	finished chan struct{}
}

// newBreakPoint opens dir/name.log and loads the ids it already holds.
func newBreakPoint(dir, name string, buf int) (*BreakPoint, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "create break point dir")
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.log", name))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open break point file %s", path)
	}
	done, err := readBreakPoint(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	b := &BreakPoint{
		file:     file,
		saveChan: make(chan cell.ID, buf),
		done:     done,
		finished: make(chan struct{}),
	}
	go b.start()
	return b, nil
}

// openBreakPoint opens the break point of the configured tiler; pending ids
// are buffered up to task.bufSize.
func openBreakPoint(conf *config.Conf) (*BreakPoint, error) {
	return newBreakPoint(conf.BreakPoint.SaveFilePath, conf.Tiler.Name, conf.Task.BufSize)
}

func readBreakPoint(file *os.File) (map[string]struct{}, error) {
	res := make(map[string]struct{})
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			res[line] = struct{}{}
		}
	}
	return res, errors.Wrap(sc.Err(), "read break point file")
}

// Len number of ids loaded at open
func (b *BreakPoint) Len() int { return len(b.done) }

// IsDone reports whether id was saved by an earlier run.
func (b *BreakPoint) IsDone(id cell.ID) bool {
	_, ok := b.done[id.String()]
	return ok
}

// SetDone records id; calls after Close are dropped.
func (b *BreakPoint) SetDone(id cell.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.saveChan <- id
}

func (b *BreakPoint) start() {
	defer close(b.finished)
	w := bufio.NewWriter(b.file)
	for id := range b.saveChan {
		w.WriteString(id.String() + "\n")
		if len(b.saveChan) == 0 {
			if err := w.Flush(); err != nil {
				log.Errorf("write break point error, details: %s", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		log.Errorf("write break point error, details: %s", err)
	}
}

// Close drains pending ids and closes the file. It is safe to call twice.
func (b *BreakPoint) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.saveChan)
	b.mu.Unlock()

	<-b.finished
	b.file.Close()
	log.Infof("break point saved, %s", b.file.Name())
}
