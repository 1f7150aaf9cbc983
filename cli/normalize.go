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

	cliUtil "github.com/purpleidea/dust/cli/util"
	"github.com/purpleidea/dust/lang/ast"

	"github.com/sanity-io/litter"
	"github.com/spf13/afero"
)

// NormalizeArgs is the CLI parsing structure and type of the parsed result.
type NormalizeArgs struct {
	cliUtil.LangArgs

	AST bool `arg:"--ast" help:"also print a dump of the tree of the normal form"`

	Stats bool `arg:"--stats" help:"print the counters of the normalizer to stderr"`
}

// Run executes the correct subcommand. It errors if there's ever an error. It
// returns true if we did activate one of the subcommands. It returns false if
// we did not. This information is used so that the top-level parser can return
// usage or help information if no subcommand activates. This particular Run is
// the normalize command.
func (obj *NormalizeArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	if err := obj.normalize(ctx, data, afero.NewOsFs(), os.Stdout, os.Stderr); err != nil {
		return false, err
	}
	return true, nil
}

// normalize prints the normal form to stdout and the stats to stderr.
func (obj *NormalizeArgs) normalize(ctx context.Context, data *cliUtil.Data, fs afero.Fs, stdout, stderr io.Writer) error {
	d, err := loadDialect(fs, data)
	if err != nil {
		return err
	}
	l, err := newLang(fs, data, &obj.LangArgs, d)
	if err != nil {
		return err
	}

	expr, err := l.Normalize(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\n", ast.Show(expr))

	if obj.AST {
		lo := &litter.Options{
			StripPackageNames: true,
			HidePrivateFields: true,
			HideZeroValues:    true,
		}
		fmt.Fprintf(stdout, "%s\n", lo.Sdump(expr))
	}
	if obj.Stats {
		s := l.Stats()
		fmt.Fprintf(stderr, "substitutions: %d, reductions: %d, lets: %d, boxes: %d (%d reused)\n", s.Substitutions, s.Reductions, s.Lets, s.Allocated, s.Reused)
	}
	return nil
}
