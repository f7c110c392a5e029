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
	"math/rand"

	"github.com/pkg/errors"

	. "github.com/openthread/csmasim/types"
)

// ContentionWindow returns the contention window for a retry count, 2^retries.
func ContentionWindow(retries int) int {
	return 1 << uint(retries)
}

// DrawBackoff draws a backoff uniformly from [0, 2^retries - 1] slots. Once retries has reached
// maxRetries no draw happens and ErrMaxRetriesExceeded is returned.
func DrawBackoff(rng *rand.Rand, retries int, maxRetries int) (int, error) {
	if retries >= maxRetries {
		return 0, errors.Wrapf(ErrMaxRetriesExceeded, "retries=%d", retries)
	}
	return rng.Intn(ContentionWindow(retries)), nil
}

// drawBackoff draws a backoff for the node's current retry count and records the sample.
func (node *Node) drawBackoff(now Timestamp, maxRetries int) (slots int, sample Sample, err error) {
	node.lock.Lock()
	defer node.lock.Unlock()

	slots, err = DrawBackoff(node.rng, node.retries, maxRetries)
	if err != nil {
		return
	}
	node.backoffCounter = slots
	sample = node.appendSample(now)
	return
}
