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

	cliUtil "github.com/purpleidea/dust/cli/util"
	"github.com/purpleidea/dust/lang"
	"github.com/purpleidea/dust/lang/dialect"
	"github.com/purpleidea/dust/util/errwrap"

	"github.com/spf13/afero"
)

// offlineFetcher refuses every remote import.
type offlineFetcher struct{}

// Fetch always errors.
func (obj *offlineFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	return nil, errwrap.Wrapf(cliUtil.ErrOffline, "can't fetch `%s`", location)
}

// loadDialect returns the dialect from the flags, or the default one.
func loadDialect(fs afero.Fs, data *cliUtil.Data) (*dialect.Dialect, error) {
	if data.Flags.Dialect == "" {
		return dialect.Default(), nil
	}
	d, err := dialect.Load(fs, data.Flags.Dialect)
	if err != nil {
		return nil, err
	}
	data.Flags.Logf("main: dialect: %s (%d builtins)", d.Name, len(d.Builtins))
	return d, nil
}

// newLang builds the pipeline for the lang args of a subcommand.
func newLang(fs afero.Fs, data *cliUtil.Data, args *cliUtil.LangArgs, d *dialect.Dialect) (*lang.Lang, error) {
	obj := &lang.Lang{
		Fs:      fs,
		Input:   args.Input,
		Dir:     args.Dir,
		Dialect: d,

		Debug: data.Flags.Debug,
		Logf: func(format string, v ...interface{}) {
			data.Flags.Logf("lang: "+format, v...)
		},
	}
	if args.Offline {
		obj.Fetcher = &offlineFetcher{}
	}
	if err := obj.Init(); err != nil {
		return nil, errwrap.Wrapf(err, "could not init the lang")
	}
	return obj, nil
}
