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
	"time"

	cliUtil "github.com/purpleidea/dust/cli/util"
	"github.com/purpleidea/dust/lang"
	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/prometheus"
	"github.com/purpleidea/dust/util/errwrap"
	"github.com/purpleidea/dust/util/filewatch"

	"github.com/spf13/afero"
)

// settle is how long the watcher waits for a burst of events to end. Editors
// often write a file in more than one step.
const settle = 50 * time.Millisecond

// WatchArgs is the CLI parsing structure and type of the parsed result.
type WatchArgs struct {
	cliUtil.LangArgs

	Prometheus       bool   `arg:"--prometheus" help:"start a prometheus instance"`
	PrometheusListen string `arg:"--prometheus-listen" help:"specify prometheus instance binding"`
}

// Run executes the correct subcommand. It errors if there's ever an error. It
// returns true if we did activate one of the subcommands. It returns false if
// we did not. This information is used so that the top-level parser can return
// usage or help information if no subcommand activates. This particular Run is
// the watch command.
func (obj *WatchArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	if err := obj.watch(ctx, data, afero.NewOsFs(), os.Stdout, os.Stderr); err != nil {
		return false, err
	}
	return true, nil
}

// watch normalizes the input, and does so again whenever it or one of the
// local files it imports changes, until the context is cancelled. Errors of a
// run are printed and don't stop the watch.
func (obj *WatchArgs) watch(ctx context.Context, data *cliUtil.Data, fs afero.Fs, stdout, stderr io.Writer) error {
	if obj.Input == lang.StdinInput {
		return cliUtil.ErrWatchStdin
	}
	if fi, err := fs.Stat(obj.Input); err != nil || fi.IsDir() {
		return errwrap.Wrapf(cliUtil.ErrWatchStdin, "bad input `%s`", obj.Input)
	}
	input, err := filepath.Abs(obj.Input)
	if err != nil {
		return errwrap.Wrapf(err, "can't find `%s`", obj.Input)
	}

	d, err := loadDialect(fs, data)
	if err != nil {
		return err
	}
	l, err := newLang(fs, data, &obj.LangArgs, d)
	if err != nil {
		return err
	}

	Logf := func(format string, v ...interface{}) {
		data.Flags.Logf("watch: "+format, v...)
	}

	var prom *prometheus.Prometheus
	if obj.Prometheus {
		prom = &prometheus.Prometheus{
			Listen: obj.PrometheusListen,
		}
		if err := prom.Init(); err != nil {
			return errwrap.Wrapf(err, "can't initialize prometheus instance")
		}
		Logf("prometheus: starting instance on: %s", prom.Listen)
		if err := prom.Start(); err != nil {
			return errwrap.Wrapf(err, "can't start prometheus instance")
		}
		defer func() {
			if err := prom.Stop(); err != nil {
				Logf("prometheus: stop failed: %v", err)
			}
		}()
	}
	watcher, err := filewatch.NewWatcher(filewatch.Debug(data.Flags.Debug), filewatch.Logf(Logf))
	if err != nil {
		return errwrap.Wrapf(err, "could not start the watcher")
	}
	defer watcher.Close()

	run := func() error {
		expr, nerr := l.Normalize(ctx)
		if prom != nil {
			prom.UpdateNormalizeTotal(l.Stats(), nerr)
		}

		// the input is kept even if it couldn't be read this time
		files := append([]string{input}, l.Files()...)
		Logf("watching %d file(s)", len(files))
		if err := watcher.Set(files); err != nil {
			return err
		}

		if nerr != nil {
			cliUtil.Report(stderr, nerr, data.Flags.Debug)
			return nil
		}
		fmt.Fprintf(stdout, "%s\n", ast.Show(expr))
		return nil
	}
	if err := run(); err != nil {
		return err
	}

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if err := event.Error; err != nil {
				return errwrap.Wrapf(err, "watch failed")
			}
			Logf("changed: %s", event.Body.Name)
			pending = time.After(settle)

		case <-pending:
			pending = nil
			if err := run(); err != nil {
				return err
			}

		case <-ctx.Done():
			Logf("interrupted")
			return nil
		}
	}
}
