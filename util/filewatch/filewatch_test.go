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

package filewatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func next(t *testing.T, obj *Watcher) *Event {
	select {
	case event := <-obj.Events():
		return &event
	case <-time.After(5 * time.Second):
		return nil
	}
}

func TestWatcher0(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.dhall")
	b := filepath.Join(dir, "b.dhall")
	for _, f := range []string{a, b} {
		if err := os.WriteFile(f, []byte("1"), 0644); err != nil {
			t.Errorf("could not write: %+v", err)
			return
		}
	}

	obj, err := NewWatcher(Debug(true), Logf(t.Logf))
	if err != nil {
		t.Errorf("could not init: %+v", err)
		return
	}
	defer obj.Close()

	if err := obj.Set([]string{a}); err != nil {
		t.Errorf("could not set: %+v", err)
		return
	}

	// b is in a watched dir, but nobody asked for it
	if err := os.WriteFile(b, []byte("2"), 0644); err != nil {
		t.Errorf("could not write: %+v", err)
		return
	}
	if err := os.WriteFile(a, []byte("3"), 0644); err != nil {
		t.Errorf("could not write: %+v", err)
		return
	}
	event := next(t, obj)
	if event == nil {
		t.Errorf("no event")
		return
	}
	if event.Error != nil {
		t.Errorf("watch failed: %+v", event.Error)
		return
	}
	if event.Body.Name != a {
		t.Errorf("event for the wrong file: %s", event.Body.Name)
	}

	// replacing the file by a rename is still seen
	tmp := filepath.Join(dir, ".a.dhall.swp")
	if err := os.WriteFile(tmp, []byte("4"), 0644); err != nil {
		t.Errorf("could not write: %+v", err)
		return
	}
	if err := os.Rename(tmp, a); err != nil {
		t.Errorf("could not rename: %+v", err)
		return
	}
	for {
		event := next(t, obj)
		if event == nil {
			t.Errorf("no event after the rename")
			return
		}
		if event.Body != nil && event.Body.Name == a {
			break
		}
	}
}

func TestWatcherSet0(t *testing.T) {
	one, two := t.TempDir(), t.TempDir()

	obj, err := NewWatcher()
	if err != nil {
		t.Errorf("could not init: %+v", err)
		return
	}
	defer obj.Close()

	if err := obj.Set([]string{filepath.Join(one, "x"), filepath.Join(two, "y")}); err != nil {
		t.Errorf("could not set: %+v", err)
		return
	}
	if len(obj.dirs) != 2 {
		t.Errorf("expected two dirs, got: %v", obj.dirs)
	}
	if err := obj.Set([]string{filepath.Join(two, "y"), filepath.Join(two, "z")}); err != nil {
		t.Errorf("could not set: %+v", err)
		return
	}
	if _, exists := obj.dirs[two]; !exists || len(obj.dirs) != 1 {
		t.Errorf("unexpected dirs: %v", obj.dirs)
	}
	if err := obj.Set([]string{filepath.Join(one, "missing", "x")}); err == nil {
		t.Errorf("expected an error for a missing dir")
	}
}

func TestWatcherLogf0(t *testing.T) {
	if _, err := NewWatcher(Logf(nil)); err == nil {
		t.Errorf("expected an error for a nil logf")
	}
}
