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

package util

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/purpleidea/dust/lang/normalize"
	"github.com/purpleidea/dust/util/errwrap"

	"github.com/mattn/go-isatty"
)

const (
	red   = "\033[31m"
	reset = "\033[0m"
)

// fder is what an *os.File has, which is what we need to look for a terminal.
type fder interface {
	Fd() uintptr
}

// IsTerminal returns true if w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report writes every error that err was built from, one per entry, to w. It
// is coloured red when w is a terminal. With debug on, unsupported reductions
// come with a dump of the node they were stuck on.
func Report(w io.Writer, err error, debug bool) {
	if err == nil {
		return
	}
	color := IsTerminal(w)
	for _, e := range errwrap.Errors(err) {
		msg := e.Error()
		var u *normalize.UnsupportedError
		if debug && errors.As(e, &u) {
			dump := strings.TrimPrefix(u.Dump(), u.Error()+"\n")
			msg = fmt.Sprintf("%s\n%s", msg, strings.TrimSuffix(dump, "\n"))
		}
		if color {
			msg = red + msg + reset
		}
		fmt.Fprintf(w, "error: %s\n", msg)
	}
}
