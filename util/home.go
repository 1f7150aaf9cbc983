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

// Package util contains a collection of miscellaneous utility functions.
package util

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ExpandHome does an expansion of ~/ or ~james/ into a home dir. The first
// form uses $HOME when it is set. Other paths are returned unchanged.
func ExpandHome(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p, fmt.Errorf("can't expand ~ into home directory")
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
	}
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}

	name, rest, _ := strings.Cut(p[1:], "/")
	usr, err := user.Lookup(name)
	if err != nil {
		return p, fmt.Errorf("can't expand ~%s into home directory", name)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}
