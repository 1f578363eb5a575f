// Copyright 2017 HootSuite Media Inc.
//
// Licensed under the Apache License, Version 2.0 (the License);
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an AS IS BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Modified hereafter by contributors to jfrog/frogbot-installer.
//
// Package main is the entrypoint for the CLI.
package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/alecthomas/kong"
	"github.com/jfrog/frogbot-installer/cmd"
	"github.com/joho/godotenv"
)

const installerVersion = "0.1.0"

func main() {
	// A .env file next to the binary is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %s", err)
	}

	ctx := kong.Parse(
		&cmd.CLI,
		cmd.FlagsVars,
		kong.DefaultEnvars("FROGBOT_INSTALLER"),
		kong.Bind(cmd.Context{
			Version: installerVersion,
		}),
	)
	err := ctx.Run(&cmd.Context{
		Version: installerVersion,
	})
	ctx.FatalIfErrorf(err)
}
