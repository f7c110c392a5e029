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

package clock

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/openthread/csmasim/logger"
	. "github.com/openthread/csmasim/types"
)

type alarmEvent struct {
	Timestamp Timestamp // wake-up time of the sleeping actor
	seq       uint64
	fired     bool
	wake      chan struct{}

	index int
}

type alarmQueue []*alarmEvent

func (aq alarmQueue) Len() int {
	return len(aq)
}

func (aq alarmQueue) Less(i, j int) bool {
	if aq[i].Timestamp != aq[j].Timestamp {
		return aq[i].Timestamp < aq[j].Timestamp
	}
	return aq[i].seq < aq[j].seq
}

func (aq alarmQueue) Swap(i, j int) {
	aq[i], aq[j] = aq[j], aq[i]
	aq[i].index, aq[j].index = i, j
}

func (aq *alarmQueue) Push(x interface{}) {
	e := x.(*alarmEvent)
	e.index = len(*aq)
	*aq = append(*aq, e)
}

func (aq *alarmQueue) Pop() (elem interface{}) {
	eqlen := len(*aq)
	e := (*aq)[eqlen-1]
	(*aq)[eqlen-1] = nil
	*aq = (*aq)[:eqlen-1]
	e.index = -1
	return e
}

// VirtualClock is a discrete-event Clock. Time only moves when every registered actor is blocked in
// Sleep; it then jumps to the earliest pending alarm and wakes every actor due at that instant.
// All actors woken at the same instant run before time moves again, so a Sleep of zero duration
// is a yield to the other actors of the current instant.
type VirtualClock struct {
	lock   sync.Mutex
	now    Timestamp
	active int
	seq    uint64
	q      alarmQueue
}

func NewVirtualClock() *VirtualClock {
	vc := &VirtualClock{
		q: alarmQueue{},
	}
	heap.Init(&vc.q)
	return vc
}

func (vc *VirtualClock) Now() Timestamp {
	vc.lock.Lock()
	defer vc.lock.Unlock()
	return vc.now
}

func (vc *VirtualClock) Join(n int) {
	logger.AssertTrue(n >= 0)
	vc.lock.Lock()
	vc.active += n
	vc.lock.Unlock()
}

func (vc *VirtualClock) Leave() {
	vc.lock.Lock()
	defer vc.lock.Unlock()
	logger.AssertTrue(vc.active > 0, "Leave() without matching Join()")
	vc.active--
	vc.advance()
}

// Pending returns the number of actors currently sleeping.
func (vc *VirtualClock) Pending() int {
	vc.lock.Lock()
	defer vc.lock.Unlock()
	return vc.q.Len()
}

func (vc *VirtualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	vc.lock.Lock()
	e := &alarmEvent{
		Timestamp: vc.now + toMicros(d),
		seq:       vc.seq,
		wake:      make(chan struct{}),
	}
	vc.seq++
	heap.Push(&vc.q, e)
	logger.AssertTrue(vc.active > 0, "Sleep() by an actor that did not Join()")
	vc.active--
	vc.advance()
	vc.lock.Unlock()

	select {
	case <-e.wake:
		return nil
	case <-ctx.Done():
		vc.lock.Lock()
		defer vc.lock.Unlock()
		if !e.fired {
			heap.Remove(&vc.q, e.index)
			vc.active++
		}
		return ctx.Err()
	}
}

// advance moves time forward if no actor is runnable. Must be called with lock held.
func (vc *VirtualClock) advance() {
	if vc.active > 0 || vc.q.Len() == 0 {
		return
	}

	ts := vc.q[0].Timestamp
	logger.AssertTrue(ts >= vc.now)
	vc.now = ts
	for vc.q.Len() > 0 && vc.q[0].Timestamp == ts {
		e := heap.Pop(&vc.q).(*alarmEvent)
		e.fired = true
		vc.active++
		close(e.wake)
	}
}
