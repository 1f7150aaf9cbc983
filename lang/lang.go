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

// Package lang ties the parser, the import resolver and the normalizer into a
// single pipeline.
package lang

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/dialect"
	"github.com/purpleidea/dust/lang/normalize"
	"github.com/purpleidea/dust/lang/parser"
	"github.com/purpleidea/dust/lang/resolve"
	"github.com/purpleidea/dust/util/errwrap"

	"github.com/spf13/afero"
)

const (
	// StdinInput is the input which reads the code from Stdin.
	StdinInput = "-"

	// stdinName is used as the filename of code without a file.
	stdinName = "<stdin>"
)

// Lang is the main pipeline object.
type Lang struct {
	Fs afero.Fs // where the input and its local imports are read from

	// Input specifies what to normalize. If it is a single dash (-), then
	// the code is read from Stdin. If it is the path of a file, then that
	// file is read. Otherwise the string is taken as the code itself.
	Input string

	// Stdin is read for the dash input. It defaults to os.Stdin.
	Stdin io.Reader

	// Dir is the directory which relative imports of code that wasn't read
	// from a file start at. It defaults to the working directory.
	Dir string

	Dialect *dialect.Dialect
	Fetcher resolve.Fetcher

	Debug bool
	Logf  func(format string, v ...interface{})

	resolver *resolve.Resolver
	input    string // the file the input was read from, if any
	stats    normalize.Stats
}

// Init validates the fields and sets the defaults.
func (obj *Lang) Init() error {
	if obj.Fs == nil {
		obj.Fs = afero.NewOsFs()
	}
	if obj.Stdin == nil {
		obj.Stdin = os.Stdin
	}
	if obj.Dir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return errwrap.Wrapf(err, "can't get working directory")
		}
		obj.Dir = dir
	}
	if obj.Dialect == nil {
		obj.Dialect = dialect.Default()
	}
	if err := obj.Dialect.Validate(); err != nil {
		return errwrap.Wrapf(err, "invalid dialect `%s`", obj.Dialect.Name)
	}
	if obj.Logf == nil {
		obj.Logf = func(format string, v ...interface{}) {} // noop
	}
	return nil
}

// source returns the code and the location it was read from.
func (obj *Lang) source() ([]byte, string, error) {
	if obj.Input == StdinInput {
		data, err := io.ReadAll(obj.Stdin)
		if err != nil {
			return nil, "", errwrap.Wrapf(err, "can't read stdin")
		}
		return data, filepath.Join(obj.Dir, stdinName), nil
	}

	if fi, err := obj.Fs.Stat(obj.Input); err == nil && !fi.IsDir() && !strings.Contains(obj.Input, "\n") {
		data, err := afero.ReadFile(obj.Fs, obj.Input)
		if err != nil {
			return nil, "", errwrap.Wrapf(err, "can't read `%s`", obj.Input)
		}
		location := obj.Input
		if !filepath.IsAbs(location) {
			location = filepath.Join(obj.Dir, location)
		}
		obj.input = location
		return data, location, nil
	}

	return []byte(obj.Input), filepath.Join(obj.Dir, stdinName), nil
}

// Normalize runs the whole pipeline once and returns the normal form. It can
// be called again, for example after a file has changed.
func (obj *Lang) Normalize(ctx context.Context) (ast.Expr, error) {
	obj.input = ""
	obj.stats = normalize.Stats{}
	data, location, err := obj.source()
	if err != nil {
		return nil, err
	}

	obj.Logf("lexing/parsing...")
	expr, err := parser.LexParseFile(location, bytes.NewReader(data))
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not generate AST")
	}
	if obj.Debug {
		obj.Logf("behold, the AST: %s", expr)
	}

	obj.Logf("resolving...")
	obj.resolver = &resolve.Resolver{
		Fs:      obj.Fs,
		Fetcher: obj.Fetcher,
		Dialect: obj.Dialect,
		Debug:   obj.Debug,
		Logf: func(format string, v ...interface{}) {
			obj.Logf("resolve: "+format, v...)
		},
	}
	if err := obj.resolver.Init(); err != nil {
		return nil, errwrap.Wrapf(err, "could not init the resolver")
	}
	if err := obj.resolver.Resolve(ctx, &expr, location); err != nil {
		return nil, errwrap.Wrapf(err, "could not resolve imports")
	}

	obj.Logf("normalizing...")
	nctx := &normalize.Context{
		Dialect: obj.Dialect,
		Debug:   obj.Debug,
		Logf: func(format string, v ...interface{}) {
			obj.Logf("normalize: "+format, v...)
		},
	}
	if err := nctx.Init(); err != nil {
		return nil, errwrap.Wrapf(err, "could not init the normalizer")
	}
	err = nctx.Normalize(&expr)
	err = errwrap.Append(err, nctx.Close())
	obj.stats = nctx.Stats()
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not normalize")
	}
	if obj.Debug {
		obj.Logf("stats: %+v", obj.stats)
	}
	return expr, nil
}

// Files returns the local files which the last run read, the input included.
func (obj *Lang) Files() []string {
	files := []string{}
	if obj.input != "" {
		files = append(files, obj.input)
	}
	if obj.resolver != nil {
		files = append(files, obj.resolver.Files()...)
	}
	return files
}

// Stats returns the counters of the last run of the normalizer.
func (obj *Lang) Stats() normalize.Stats {
	return obj.stats
}
