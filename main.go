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

package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/purpleidea/dust/cli"
	cliUtil "github.com/purpleidea/dust/cli/util"
)

// These constants are some global variables that are used throughout the code.
const (
	Debug   = false // add additional log messages
	Verbose = false // add extra log message output

	tagline = "normalizer for a small Dhall-family configuration language"
)

// set at compile time
var (
	program = "dust"
	version = "0.0.1-dev"
)

//go:embed COPYING
var copying string

func main() {
	data := &cliUtil.Data{
		Program: program,
		Version: version,
		Copying: copying,
		Tagline: tagline,
		Flags: cliUtil.Flags{
			Debug:   Debug,
			Verbose: Verbose,
		},
		Args: os.Args,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.CLI(ctx, data)
	cancel()
	if err != nil {
		if data.Flags.Debug {
			fmt.Fprintf(os.Stderr, "main: %+v\n", err)
		}
		cliUtil.Report(os.Stderr, err, data.Flags.Debug)
		os.Exit(1)
		return
	}
}
