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

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cliUtil "github.com/purpleidea/dust/cli/util"
	"github.com/purpleidea/dust/lang"
	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/dialect"
	"github.com/purpleidea/dust/lang/parser"
	"github.com/purpleidea/dust/util"
	"github.com/purpleidea/dust/util/errwrap"

	"github.com/peterh/liner"
	"github.com/spf13/afero"
)

const (
	historyFile = ".dust_history"
	promptMain  = "dust> "
	promptCont  = "....> "
)

// ReplArgs is the CLI parsing structure and type of the parsed result.
type ReplArgs struct {
	History string `arg:"--history,env:DUST_HISTORY" help:"file to keep the prompt history in"`

	Dir string `arg:"--dir" help:"directory that relative imports start at"`

	Offline bool `arg:"--offline" help:"refuse to fetch remote imports"`
}

// Run executes the correct subcommand. It errors if there's ever an error. It
// returns true if we did activate one of the subcommands. It returns false if
// we did not. This information is used so that the top-level parser can return
// usage or help information if no subcommand activates. This particular Run is
// the repl command.
func (obj *ReplArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	fs := afero.NewOsFs()
	d, err := loadDialect(fs, data)
	if err != nil {
		return false, err
	}
	s := &session{
		fs:      fs,
		data:    data,
		args:    obj,
		dialect: d,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	history := obj.History
	if history == "" {
		history = filepath.Join("~", historyFile)
	}
	if history, err = util.ExpandHome(history); err != nil {
		data.Flags.Logf("main: no history: %v", err)
		history = ""
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if history != "" {
		if f, err := os.Open(history); err == nil {
			ln.ReadHistory(f)
			f.Close()
		}
	}

	for ctx.Err() == nil {
		prompt := promptMain
		if s.pending() {
			prompt = promptCont
		}
		input, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted { // ^C drops what was typed
			s.reset()
			continue
		}
		if err == io.EOF { // ^D
			fmt.Println()
			break
		}
		if err != nil {
			return false, errwrap.Wrapf(err, "prompt failed")
		}

		code, quit := s.feed(ctx, input)
		if code != "" {
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		}
		if quit {
			break
		}
	}

	if history != "" {
		f, err := os.Create(history)
		if err != nil {
			data.Flags.Logf("main: can't save the history: %v", err)
			return true, nil
		}
		ln.WriteHistory(f)
		f.Close()
	}
	return true, nil
}

// session is the state of the repl between two lines of input.
type session struct {
	fs      afero.Fs
	data    *cliUtil.Data
	args    *ReplArgs
	dialect *dialect.Dialect

	stdout io.Writer
	stderr io.Writer

	buf strings.Builder // incomplete input so far
}

// pending returns true if the input so far was incomplete.
func (obj *session) pending() bool {
	return obj.buf.Len() > 0
}

// reset drops the incomplete input.
func (obj *session) reset() {
	obj.buf.Reset()
}

// feed takes one line of input. Once the input so far parses, or fails for a
// reason other than being incomplete, it is normalized and the result or the
// error is printed. It returns the whole input when that happened, and true if
// the session should end.
func (obj *session) feed(ctx context.Context, input string) (string, bool) {
	if !obj.pending() {
		cmd := strings.Fields(input)
		if len(cmd) == 0 {
			return "", false
		}
		if strings.HasPrefix(cmd[0], ":") {
			return strings.TrimSpace(input), obj.command(cmd)
		}
	}

	obj.buf.WriteString(input)
	obj.buf.WriteString("\n")
	code := obj.buf.String()

	expr, err := obj.eval(ctx, code)
	if err != nil && parser.IsIncomplete(err) {
		return "", false // keep reading
	}
	obj.reset()
	code = strings.TrimSpace(code)
	if err != nil {
		cliUtil.Report(obj.stderr, err, obj.data.Flags.Debug)
		return code, false
	}
	fmt.Fprintf(obj.stdout, "%s\n", ast.Show(expr))
	return code, false
}

// eval runs the pipeline on some code.
func (obj *session) eval(ctx context.Context, code string) (ast.Expr, error) {
	args := &cliUtil.LangArgs{
		Input:   lang.StdinInput,
		Dir:     obj.args.Dir,
		Offline: obj.args.Offline,
	}
	l, err := newLang(obj.fs, obj.data, args, obj.dialect)
	if err != nil {
		return nil, err
	}
	l.Stdin = strings.NewReader(code)
	return l.Normalize(ctx)
}

// command runs a line starting with a colon. It returns true to quit.
func (obj *session) command(cmd []string) bool {
	switch cmd[0] {
	case ":quit", ":q":
		return true

	case ":help":
		fmt.Fprintf(obj.stdout, ":dialect [FILE|default]  show or change the built-in names\n")
		fmt.Fprintf(obj.stdout, ":quit                    leave\n")

	case ":dialect":
		if len(cmd) == 1 {
			fmt.Fprintf(obj.stdout, "%s (%d builtins)\n", obj.dialect.Name, len(obj.dialect.Builtins))
			return false
		}
		if cmd[1] == "default" {
			obj.dialect = dialect.Default()
			fmt.Fprintf(obj.stdout, "dialect: %s\n", obj.dialect.Name)
			return false
		}
		d, err := dialect.Load(obj.fs, cmd[1])
		if err != nil {
			cliUtil.Report(obj.stderr, err, obj.data.Flags.Debug)
			return false
		}
		obj.dialect = d
		fmt.Fprintf(obj.stdout, "dialect: %s\n", obj.dialect.Name)

	default:
		cliUtil.Report(obj.stderr, fmt.Errorf("unknown command: %s", cmd[0]), obj.data.Flags.Debug)
	}
	return false
}
