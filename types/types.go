// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package types

import (
	"fmt"
	"math"
)

type NodeId = int

const (
	InvalidNodeId NodeId = -1
)

// Timestamp is a simulation time in microseconds since the start of a run.
type Timestamp = uint64

const (
	// Ever is a timestamp that is never reached.
	Ever Timestamp = math.MaxUint64
)

// GetNodeName returns the display name of a node, counting from 1 like the console does.
func GetNodeName(id NodeId) string {
	return fmt.Sprintf("Node %d", id+1)
}

// MacState is the contention state of a node's MAC layer.
type MacState byte

const (
	MacIdle              MacState = 0
	MacBackoff           MacState = 1
	MacAwaitingHandshake MacState = 2
	MacTransmitting      MacState = 3
	MacSuccess           MacState = 4
	MacReceiverBusy      MacState = 5
	MacCollision         MacState = 6
	MacGiveUp            MacState = 7
)

func (s MacState) String() string {
	switch s {
	case MacIdle:
		return "Idle"
	case MacBackoff:
		return "Backoff"
	case MacAwaitingHandshake:
		return "AwaitingHandshake"
	case MacTransmitting:
		return "Transmitting"
	case MacSuccess:
		return "Success"
	case MacReceiverBusy:
		return "ReceiverBusy"
	case MacCollision:
		return "Collision"
	case MacGiveUp:
		return "GiveUp"
	default:
		return fmt.Sprintf("MacState(%d)", byte(s))
	}
}

// IsTerminal returns true for states that end an attempt cycle.
func (s MacState) IsTerminal() bool {
	return s == MacSuccess || s == MacGiveUp
}

// Role is the part a node plays in a simulation run.
type Role byte

const (
	RoleNone        Role = 0
	RoleTransmitter Role = 1
	RoleReceiver    Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "-"
	case RoleTransmitter:
		return "tx"
	case RoleReceiver:
		return "rx"
	default:
		return "invalid"
	}
}
