// Dust
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package filewatch provides change events for a set of files via fsnotify.
package filewatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
)

// Event represents a watcher event. These can include errors.
type Event struct {
	Error error
	Body  *fsnotify.Event
}

// Watcher sends an event whenever one of the files it was given changes. The
// parent directories are what gets watched, so files which are replaced by a
// rename, the way most editors save them, keep being followed. Run Init() on
// it.
type Watcher struct {
	// Opts are the list of options that we are using this with.
	Opts []Option

	options *watcherOptions // computed options
	watcher *fsnotify.Watcher
	files   map[string]struct{} // what we send events for
	dirs    map[string]struct{} // what we told fsnotify about
	events  chan Event          // one channel for events and err...
	mutex   sync.Mutex          // guards files and dirs
	wg      sync.WaitGroup
	exit    chan struct{}
}

// NewWatcher creates and initializes a new watcher.
func NewWatcher(opts ...Option) (*Watcher, error) {
	obj := &Watcher{
		Opts: opts,
	}
	return obj, obj.Init()
}

// Init starts the watcher. No events are sent until Set is called.
func (obj *Watcher) Init() error {
	obj.files = make(map[string]struct{})
	obj.dirs = make(map[string]struct{})
	obj.events = make(chan Event)
	obj.exit = make(chan struct{})
	obj.options = &watcherOptions{ // default options
		debug: false,
		logf: func(format string, v ...interface{}) {
			// noop
		},
	}
	for _, optionFunc := range obj.Opts { // apply the options
		optionFunc(obj.options)
	}

	if obj.options.logf == nil {
		return fmt.Errorf("filewatch: logf must not be nil")
	}

	var err error
	obj.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	obj.wg.Add(1)
	go func() {
		defer obj.wg.Done()
		if err := obj.watch(); err != nil {
			select {
			case obj.events <- Event{Error: err}:
			case <-obj.exit:
				// pass
			}
		}
	}()
	return nil
}

// Set replaces the list of files to send events for. Directories which no
// longer hold any of them stop being watched.
func (obj *Watcher) Set(files []string) error {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()

	files = lo.Map(files, func(f string, _ int) string { return filepath.Clean(f) })
	dirs := lo.Uniq(lo.Map(files, func(f string, _ int) string { return filepath.Dir(f) }))

	obj.files = make(map[string]struct{})
	for _, f := range files {
		obj.files[f] = struct{}{}
	}

	for dir := range obj.dirs {
		if lo.Contains(dirs, dir) {
			continue
		}
		if obj.options.debug {
			obj.options.logf("unwatching: %s", dir)
		}
		obj.watcher.Remove(dir) // it may be gone already
		delete(obj.dirs, dir)
	}

	for _, dir := range dirs {
		if _, exists := obj.dirs[dir]; exists {
			continue
		}
		if obj.options.debug {
			obj.options.logf("watching: %s", dir)
		}
		if err := obj.watcher.Add(dir); err != nil {
			if err == syscall.ENOSPC {
				// no space left on device, out of inotify watches
				return fmt.Errorf("out of inotify watches: %v", err)
			} else if os.IsPermission(err) {
				return fmt.Errorf("permission denied adding a watch: %v", err)
			}
			return fmt.Errorf("can't watch `%s`: %v", dir, err)
		}
		obj.dirs[dir] = struct{}{}
	}
	return nil
}

// Close shuts down the watcher.
func (obj *Watcher) Close() error {
	var err error
	close(obj.exit) // send exit signal
	obj.wg.Wait()
	if obj.watcher != nil {
		err = obj.watcher.Close()
		obj.watcher = nil
	}
	close(obj.events)
	return err
}

// Events returns a channel of events. These include events for errors.
func (obj *Watcher) Events() <-chan Event { return obj.events }

// interesting returns true if the event is about one of our files.
func (obj *Watcher) interesting(event fsnotify.Event) bool {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	_, exists := obj.files[filepath.Clean(event.Name)]
	return exists && event.Op != fsnotify.Chmod
}

// watch is the primary listener and it outputs events.
func (obj *Watcher) watch() error {
	for {
		select {
		case event, ok := <-obj.watcher.Events:
			if !ok {
				return nil
			}
			if obj.options.debug {
				obj.options.logf("event(%s): %v", event.Name, event.Op)
			}
			if !obj.interesting(event) {
				continue
			}
			select {
			// exit even when we're blocked on event sending
			case obj.events <- Event{Error: nil, Body: &event}:
			case <-obj.exit:
				return nil
			}

		case err, ok := <-obj.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("unknown watcher error: %v", err)

		case <-obj.exit:
			return nil
		}
	}
}

// Option is a type that can be used to configure the watcher.
type Option func(*watcherOptions)

type watcherOptions struct {
	debug bool
	logf  func(format string, v ...interface{})
}

// Debug specifies whether we should run in debug mode or not.
func Debug(debug bool) Option {
	return func(wo *watcherOptions) {
		wo.debug = debug
	}
}

// Logf passes a logger function that we can use if so desired.
func Logf(logf func(format string, v ...interface{})) Option {
	return func(wo *watcherOptions) {
		wo.logf = logf
	}
}
