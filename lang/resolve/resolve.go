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

// Package resolve replaces the imports of a syntax tree with the expressions
// they refer to. Local files are read through an afero filesystem and remote
// ones are fetched over http.
package resolve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/purpleidea/dust/lang/ast"
	"github.com/purpleidea/dust/lang/dialect"
	"github.com/purpleidea/dust/lang/interfaces"
	"github.com/purpleidea/dust/lang/normalize"
	"github.com/purpleidea/dust/lang/parser"
	"github.com/purpleidea/dust/util"
	"github.com/purpleidea/dust/util/errwrap"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

const (
	// AsText is the import mode which embeds the raw content.
	AsText = "Text"

	// AsLocation is the import mode which gives the resolved location.
	AsLocation = "Location"
)

// Fetcher reads a remote location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher fetches with a plain GET request.
type HTTPFetcher struct {
	// Client is used for the requests. The default client is used if nil.
	Client *http.Client
}

// Fetch returns the body of the response. Any status other than 200 is an
// error.
func (obj *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	client := obj.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errwrap.Wrapf(err, "bad request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Resolver resolves imports. Code imports are parsed, their own imports are
// resolved, and they are normalized on their own before they are inlined. The
// result for each location is cached. It must be built with Init.
type Resolver struct {
	// Fs is used for local imports. The os filesystem is used if nil.
	Fs afero.Fs

	// Fetcher is used for remote imports. An HTTPFetcher is used if nil.
	Fetcher Fetcher

	// Dialect is used to normalize imported code.
	Dialect *dialect.Dialect

	Debug bool
	Logf  func(format string, v ...interface{})

	cache  map[string]ast.Expr
	active []string // locations being resolved right now
	files  []string
}

// Init sets the defaults.
func (obj *Resolver) Init() error {
	if obj.Fs == nil {
		obj.Fs = afero.NewOsFs()
	}
	if obj.Fetcher == nil {
		obj.Fetcher = &HTTPFetcher{}
	}
	if obj.Dialect == nil {
		obj.Dialect = dialect.Default()
	}
	if obj.Logf == nil {
		obj.Logf = func(format string, v ...interface{}) {} // noop
	}
	obj.cache = make(map[string]ast.Expr)
	return nil
}

// Resolve replaces every import in the tree. The base is the location of the
// source of the tree, and relative imports are found next to it.
func (obj *Resolver) Resolve(ctx context.Context, e *ast.Expr, base string) error {
	w := &walker{
		ctx:      ctx,
		resolver: obj,
		base:     base,
		binders:  make(map[string]int),
	}
	return w.expr(e)
}

// Files returns every local file that was read, for watching.
func (obj *Resolver) Files() []string {
	return lo.Uniq(obj.files)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// locate turns an import path into a location relative to the base.
func (obj *Resolver) locate(base, p string) (string, error) {
	if isRemote(p) {
		return p, nil
	}
	if isRemote(base) {
		if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") {
			return "", fmt.Errorf("remote import `%s` can't reach local `%s`", base, p)
		}
		u, err := url.Parse(base)
		if err != nil {
			return "", errwrap.Wrapf(err, "bad url `%s`", base)
		}
		ref, err := url.Parse(p)
		if err != nil {
			return "", errwrap.Wrapf(err, "bad import `%s`", p)
		}
		return u.ResolveReference(ref).String(), nil
	}
	if strings.HasPrefix(p, "~") {
		return util.ExpandHome(p)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Join(filepath.Dir(base), p), nil
}

// load returns the expression an import refers to, trying the fallbacks in
// turn. A nil expression means the import is left as it is.
func (obj *Resolver) load(ctx context.Context, base string, imp *ast.TermImport, fallback bool) (ast.Expr, error) {
	if imp.Path == interfaces.MissingImport {
		if imp.Fallback != nil {
			return obj.load(ctx, base, imp.Fallback, true)
		}
		if fallback {
			return nil, errwrap.Wrapf(interfaces.ErrImportMissing, "`%s`", interfaces.MissingImport)
		}
		return nil, nil // opaque
	}

	e, err := obj.fetch(ctx, base, imp)
	if err == nil {
		return e, nil
	}
	if imp.Fallback == nil || errors.Is(err, interfaces.ErrImportCycle) {
		return nil, err
	}
	if obj.Debug {
		obj.Logf("trying fallback of `%s`: %v", imp.Path, err)
	}
	e, ferr := obj.load(ctx, base, imp.Fallback, true)
	if ferr != nil {
		return nil, errwrap.Append(err, ferr)
	}
	return e, nil
}

// fetch resolves a single import without its fallbacks.
func (obj *Resolver) fetch(ctx context.Context, base string, imp *ast.TermImport) (ast.Expr, error) {
	location, err := obj.locate(base, imp.Path)
	if err != nil {
		return nil, err
	}
	if imp.As == AsLocation {
		return ast.ToExpr(&ast.TermText{
			Style:   ast.TextQuoted,
			Entries: []*ast.TextEntry{{Literal: location}},
		}), nil
	}
	if imp.Guard != "" && obj.Debug {
		obj.Logf("not checking the integrity of `%s`", location)
	}

	if imp.As == AsText {
		data, err := obj.read(ctx, location)
		if err != nil {
			return nil, err
		}
		return ast.ToExpr(&ast.TermEmbed{Raw: string(data)}), nil
	}

	if lo.Contains(obj.active, location) {
		return nil, errwrap.Wrapf(interfaces.ErrImportCycle, "`%s` via %s", location, strings.Join(obj.active, " -> "))
	}
	if cached, exists := obj.cache[location]; exists {
		return ast.CopyExpr(cached), nil
	}

	data, err := obj.read(ctx, location)
	if err != nil {
		return nil, err
	}
	expr, err := parser.LexParseFile(location, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	obj.active = append(obj.active, location)
	defer func() { obj.active = obj.active[:len(obj.active)-1] }()

	if err := obj.Resolve(ctx, &expr, location); err != nil {
		return nil, errwrap.Wrapf(err, "in `%s`", location)
	}

	nctx := &normalize.Context{
		Dialect: obj.Dialect,
		Debug:   obj.Debug,
		Logf: func(format string, v ...interface{}) {
			obj.Logf("normalize: "+format, v...)
		},
	}
	if err := nctx.Init(); err != nil {
		return nil, err
	}
	err = nctx.Normalize(&expr)
	err = errwrap.Append(err, nctx.Close())
	if err != nil {
		return nil, errwrap.Wrapf(err, "in `%s`", location)
	}

	// the distances are read again against the scopes at the import site
	ast.ResetScopes(expr)
	obj.cache[location] = expr
	return ast.CopyExpr(expr), nil
}

// read returns the content of a location.
func (obj *Resolver) read(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isRemote(location) {
		obj.Logf("fetching: %s", location)
		data, err := obj.Fetcher.Fetch(ctx, location)
		if err != nil {
			return nil, errwrap.Wrapf(interfaces.ErrImportMissing, "`%s`: %v", location, err)
		}
		return data, nil
	}
	if obj.Debug {
		obj.Logf("reading: %s", location)
	}
	data, err := afero.ReadFile(obj.Fs, location)
	if err != nil {
		return nil, errwrap.Wrapf(interfaces.ErrImportMissing, "`%s`: %v", location, err)
	}
	obj.files = append(obj.files, location)
	return data, nil
}

// walker visits every node, counting the binders around the current node so
// that an inlined expression can be shifted past them.
type walker struct {
	ctx      context.Context
	resolver *Resolver
	base     string
	binders  map[string]int
}

// bind runs fn with name bound once more.
func (obj *walker) bind(name string, fn func() error) error {
	if name == "" {
		return fn()
	}
	obj.binders[name]++
	defer func() { obj.binders[name]-- }()
	return fn()
}

func (obj *walker) expr(p *ast.Expr) error {
	switch x := (*p).(type) {
	case *ast.ExprTerm1:
		return obj.term1(&x.Term1)

	case *ast.ExprLet:
		return obj.let(x, 0)

	case *ast.ExprLambda:
		if x.Type != nil {
			if err := obj.expr(&x.Type); err != nil {
				return err
			}
		}
		return obj.bind(x.Param, func() error { return obj.expr(&x.Body) })
	}
	return nil
}

// let visits the bindings from i on, then the body.
func (obj *walker) let(x *ast.ExprLet, i int) error {
	if i == len(x.Bindings) {
		return obj.expr(&x.Body)
	}
	b := x.Bindings[i]
	if b.Type != nil {
		if err := obj.expr(&b.Type); err != nil {
			return err
		}
	}
	if err := obj.expr(&b.Value); err != nil {
		return err
	}
	return obj.bind(b.Name, func() error { return obj.let(x, i+1) })
}

func (obj *walker) term1(p *ast.Term1) error {
	switch x := (*p).(type) {
	case *ast.Term1Term:
		return obj.term(&x.Term)
	case *ast.Term1Evaluation:
		if err := obj.term1(&x.Func); err != nil {
			return err
		}
		return obj.term(&x.Arg)
	case *ast.Term1Arrow:
		if err := obj.expr(&x.Domain); err != nil {
			return err
		}
		return obj.bind(x.Param, func() error { return obj.expr(&x.Codomain) })
	case *ast.Term1With:
		if err := obj.term1(&x.Base); err != nil {
			return err
		}
		return obj.term1(&x.Value)
	case *ast.Term1Operation:
		if err := obj.term1(&x.Left); err != nil {
			return err
		}
		return obj.term1(&x.Right)
	case *ast.Term1IfThenElse:
		for _, e := range []*ast.Expr{&x.Cond, &x.Then, &x.Else} {
			if err := obj.expr(e); err != nil {
				return err
			}
		}
		return nil
	case *ast.Term1Ascribe:
		if err := obj.term1(&x.Term); err != nil {
			return err
		}
		return obj.expr(&x.Type)
	case *ast.Term1Construct:
		if err := obj.term1(&x.Term); err != nil {
			return err
		}
		return obj.fields(x.Fields)
	}
	return nil
}

func (obj *walker) fields(fields []*ast.RecordEntry) error {
	for _, f := range fields {
		if err := obj.expr(&f.Value); err != nil {
			return err
		}
	}
	return nil
}

func (obj *walker) term(p *ast.Term) error {
	switch x := (*p).(type) {
	case *ast.TermImport:
		e, err := obj.resolver.load(obj.ctx, obj.base, x, false)
		if err != nil {
			return err
		}
		if e == nil {
			return nil
		}
		for name, n := range obj.binders {
			if n > 0 {
				ast.Shift(e, name, n)
			}
		}
		*p = &ast.TermExpr{Expr: e}
		return nil

	case *ast.TermFieldAccess:
		return obj.term(&x.Term)
	case *ast.TermProject:
		if err := obj.term(&x.Term); err != nil {
			return err
		}
		for i := range x.Selectors {
			if err := obj.term1(&x.Selectors[i]); err != nil {
				return err
			}
		}
		return nil
	case *ast.TermPath:
		for i := range x.Terms {
			if err := obj.term(&x.Terms[i]); err != nil {
				return err
			}
		}
		return nil
	case *ast.TermText:
		for _, e := range x.Entries {
			if e.Interpolated == nil {
				continue
			}
			if err := obj.expr(&e.Interpolated); err != nil {
				return err
			}
		}
		return nil
	case *ast.TermList:
		for i := range x.Elems {
			if err := obj.expr(&x.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	case *ast.TermRecord:
		return obj.fields(x.Fields)
	case *ast.TermTypeRecord:
		return obj.fields(x.Fields)
	case *ast.TermTypeEnum:
		for _, a := range x.Alts {
			if a.Type == nil {
				continue
			}
			if err := obj.expr(&a.Type); err != nil {
				return err
			}
		}
		return nil
	case *ast.TermExpr:
		return obj.expr(&x.Expr)
	case *ast.TermMerge:
		if err := obj.fields(x.Handlers); err != nil {
			return err
		}
		return obj.term(&x.Scrutinee)
	}
	return nil
}
