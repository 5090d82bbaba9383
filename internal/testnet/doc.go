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
Package testnet launches the external script that brings up a local test
blockchain network and lets the caller terminate it again.

The script is opaque. It receives its configuration through three
environment variables layered over the caller's environment:

	WORKING_DIRECTORY  directory for the network's persistent state
	NETWORK_CHAIN_ID   decimal chain ID
	SHARED_SECRET      password used for every generated account

A Controller tracks at most one launched process:

	c, err := testnet.New("./testnet.bash", testnet.WithNetworkID(99))
	if err != nil {
	    return err
	}
	if err := c.Start(false); err != nil {
	    return err
	}
	defer c.Terminate()

Start does not wait for the network to become usable, and Terminate only
delivers SIGTERM; neither watches the process afterwards.
*/
package testnet
