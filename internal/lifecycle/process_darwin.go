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

//go:build darwin

package lifecycle

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// getProcessArgv0 returns the first word of the command line reported by ps.
func getProcessArgv0(pid int) (string, error) {
	cmd, err := getProcessCommand(pid)
	if err != nil {
		return "", err
	}
	return strings.Fields(cmd)[0], nil
}

// getProcessCommand asks ps for the full command line.
func getProcessCommand(pid int) (string, error) {
	output, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "command=").Output()
	if err != nil {
		return "", fmt.Errorf("ps command failed: %w", err)
	}

	cmd := strings.TrimSpace(string(output))
	if cmd == "" {
		return "", fmt.Errorf("no command for process %d", pid)
	}
	return cmd, nil
}
