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

package mac

import (
	"github.com/pkg/errors"
)

var (
	// ErrReceiverBusy is returned when the receiver already accepted an RTS from another sender.
	ErrReceiverBusy = errors.New("receiver busy")
	// ErrCollision is returned when a neighbor of the sender was transmitting at the same time.
	ErrCollision = errors.New("collision")
	// ErrMaxRetriesExceeded is returned when a sender gives up after the maximum number of retries.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrAlreadyTransmitting is returned when a node that is already transmitting tries to send an RTS.
	ErrAlreadyTransmitting = errors.New("already transmitting")
	// ErrOutOfRange is returned when the receiver is not a neighbor of the sender.
	ErrOutOfRange = errors.New("receiver out of range")
)

// IsRecoverable returns true for handshake failures that lead to another backoff.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrReceiverBusy) || errors.Is(err, ErrCollision)
}
