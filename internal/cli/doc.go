// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package cli provides the root command for the testnet CLI.

It owns the global flags and version information. Subcommands live in the
internal/commands packages and are attached in main.

# Command Tree

	testnet
	├── start        Launch the testnet script in the foreground
	├── stop         Stop a running 'testnet start'
	├── completion   Generate shell completion scripts
	└── version      Show version

# Global Flags

	--verbose, -v    Enable verbose output
	--quiet, -q      Suppress non-error output
	--json           Output in JSON format
	--config         Path to config file

# Exit Codes

  - 0: success
  - 1: general failure
  - 2: invalid configuration
  - 3: the testnet script could not be launched
  - 4: a testnet is already running
*/
package cli
