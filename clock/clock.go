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

// Package clock provides the delay primitive used by all MAC timing: a discrete-event VirtualClock
// for fast deterministic runs, and a RealClock that waits in wall-clock time.
package clock

import (
	"context"
	"time"

	. "github.com/openthread/csmasim/types"
)

// Clock is a source of simulation time that actors can sleep on.
//
// Actors that sleep on a Clock must be registered with Join before they start and call Leave when
// they are done, so that a VirtualClock knows when all of them are blocked.
type Clock interface {
	// Now returns the current simulation time in microseconds.
	Now() Timestamp

	// Sleep blocks the calling actor for duration d of simulation time, or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error

	// Join registers n new actors.
	Join(n int)

	// Leave unregisters the calling actor.
	Leave()
}

// Mode selects a Clock implementation.
type Mode string

const (
	ModeVirtual Mode = "virtual"
	ModeReal    Mode = "real"
)

// New creates a Clock for the given mode. Speed only applies to ModeReal.
func New(mode Mode, speed float64) Clock {
	if mode == ModeReal {
		return NewRealClock(speed)
	}
	return NewVirtualClock()
}

func toMicros(d time.Duration) Timestamp {
	if d <= 0 {
		return 0
	}
	return Timestamp(d / time.Microsecond)
}
