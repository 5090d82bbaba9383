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

package testnet

import (
	"os"
)

// process is the part of a launched process the controller needs.
type process interface {
	Signal(sig os.Signal) error
	PID() int
}

type osProcess struct {
	*os.Process
}

func (p osProcess) PID() int {
	return p.Pid
}

// childSlot holds the one launched process a controller may own.
// It moves from empty to held on start and never back: terminating
// signals the process but keeps it in the slot.
type childSlot struct {
	proc process
}

func (s *childSlot) get() (process, bool) {
	return s.proc, s.proc != nil
}

// hold stores proc, failing if the slot is already occupied.
func (s *childSlot) hold(proc process) error {
	if s.proc != nil {
		return &StartError{PID: s.proc.PID()}
	}
	s.proc = proc
	return nil
}

// signal delivers sig to the held process. An empty slot is a no-op.
func (s *childSlot) signal(sig os.Signal) error {
	if s.proc == nil {
		return nil
	}
	return s.proc.Signal(sig)
}
