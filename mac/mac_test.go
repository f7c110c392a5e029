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
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/csmasim/clock"
	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/prng"
	. "github.com/openthread/csmasim/types"
)

type stateEvent struct {
	node  NodeId
	ts    Timestamp
	state MacState
}

type recordingObserver struct {
	NopObserver
	lock     sync.Mutex
	states   []stateEvent
	energy   []float64
	outcomes map[NodeId][]Outcome
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: map[NodeId][]Outcome{}}
}

func (o *recordingObserver) OnMacStateChange(nodeid NodeId, peer NodeId, ts Timestamp, state MacState) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.states = append(o.states, stateEvent{nodeid, ts, state})
}

func (o *recordingObserver) OnEnergy(nodeid NodeId, ts Timestamp, activity energy.Activity, amount float64) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.energy = append(o.energy, amount)
}

func (o *recordingObserver) OnAttemptDone(sender NodeId, receiver NodeId, ts Timestamp, outcome Outcome) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.outcomes[sender] = append(o.outcomes[sender], outcome)
}

func (o *recordingObserver) count(node NodeId, state MacState) int {
	o.lock.Lock()
	defer o.lock.Unlock()
	n := 0
	for _, e := range o.states {
		if e.node == node && e.state == state {
			n++
		}
	}
	return n
}

func (o *recordingObserver) at(node NodeId, state MacState) []Timestamp {
	o.lock.Lock()
	defer o.lock.Unlock()
	var res []Timestamp
	for _, e := range o.states {
		if e.node == node && e.state == state {
			res = append(res, e.ts)
		}
	}
	return res
}

func newTestNetwork(t *testing.T, obs Observer, positions ...[2]float64) *Network {
	prng.Init(1)
	cfgs := make([]NodeConfig, len(positions))
	for i, p := range positions {
		cfgs[i] = NodeConfig{ID: i, X: p[0], Y: p[1]}
	}
	nw, err := NewNetwork(NetworkConfig{
		Params:   DefaultParams(),
		Costs:    energy.DefaultCostTable(),
		Clock:    clock.NewVirtualClock(),
		Nodes:    cfgs,
		Observer: obs,
	})
	require.Nil(t, err)
	return nw
}

// runActors runs each function as an actor of the network's clock and waits for all of them.
func runActors(nw *Network, fns ...func()) {
	var wg sync.WaitGroup
	nw.Clock().Join(len(fns))
	for _, f := range fns {
		wg.Add(1)
		go func(f func()) {
			defer wg.Done()
			defer nw.Clock().Leave()
			f()
		}(f)
	}
	wg.Wait()
}

func TestContentionWindow(t *testing.T) {
	for r := 0; r <= DefaultMaxRetries; r++ {
		assert.Equal(t, 1<<r, ContentionWindow(r))
	}
}

func TestDrawBackoff(t *testing.T) {
	prng.Init(7)
	rng := prng.NewNodeRand()
	for r := 0; r < DefaultMaxRetries; r++ {
		seen := map[int]bool{}
		for i := 0; i < 2000; i++ {
			slots, err := DrawBackoff(rng, r, DefaultMaxRetries)
			require.Nil(t, err)
			assert.True(t, slots >= 0 && slots <= ContentionWindow(r)-1, "retries=%d slots=%d", r, slots)
			seen[slots] = true
		}
		assert.Equal(t, ContentionWindow(r), len(seen), "every slot of the window is drawn")
	}

	slots, err := DrawBackoff(rng, DefaultMaxRetries, DefaultMaxRetries)
	assert.True(t, errors.Is(err, ErrMaxRetriesExceeded))
	assert.Equal(t, 0, slots)
}

func TestParams(t *testing.T) {
	p := DefaultParams()
	assert.Nil(t, p.Validate())
	assert.Equal(t, 5.0, p.NavSlots())

	bad := p
	bad.CwMin = 2048
	assert.NotNil(t, bad.Validate())
	bad = p
	bad.Sifs = 0
	assert.NotNil(t, bad.Validate())
	bad = p
	bad.MaxRetries = 0
	assert.NotNil(t, bad.Validate())
	bad = p
	bad.TransmissionRange = -1
	assert.NotNil(t, bad.Validate())
}

func TestReceiveRtsFirstClaimantWins(t *testing.T) {
	nw := newTestNetwork(t, nil, [2]float64{0, 0})
	receiver := nw.Node(0)

	const senders = 16
	var wg sync.WaitGroup
	results := make([]error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = receiver.ReceiveRts(NodeId(i + 1))
		}(i)
	}
	wg.Wait()

	winner := InvalidNodeId
	for i, err := range results {
		if err == nil {
			assert.Equal(t, InvalidNodeId, winner, "only one claim may succeed")
			winner = NodeId(i + 1)
		} else {
			assert.True(t, errors.Is(err, ErrReceiverBusy))
		}
	}
	require.NotEqual(t, InvalidNodeId, winner)
	assert.True(t, receiver.RtsReceived())

	// only the holder can release the claim
	receiver.ReleaseRts(winner + 100)
	assert.True(t, receiver.RtsReceived())
	receiver.ReleaseRts(winner)
	assert.False(t, receiver.RtsReceived())
	assert.Nil(t, receiver.ReceiveRts(3))
}

func TestNewNetworkNeighbors(t *testing.T) {
	nw := newTestNetwork(t, nil, [2]float64{0, 0}, [2]float64{5, 0}, [2]float64{100, 0})
	assert.True(t, nw.Node(0).IsNeighbor(nw.Node(1)))
	assert.True(t, nw.Node(1).IsNeighbor(nw.Node(0)))
	assert.False(t, nw.Node(0).IsNeighbor(nw.Node(2)))
	assert.Empty(t, nw.Node(2).Neighbors())
	assert.Nil(t, nw.Node(3))
	assert.Equal(t, MacIdle, nw.Node(0).State())

	_, err := NewNetwork(NetworkConfig{
		Params: DefaultParams(),
		Costs:  energy.DefaultCostTable(),
		Nodes:  []NodeConfig{{ID: 1}},
	})
	assert.NotNil(t, err)
}

func TestSingleSenderSucceedsFirstAttempt(t *testing.T) {
	obs := newRecordingObserver()
	nw := newTestNetwork(t, obs, [2]float64{0, 0}, [2]float64{5, 0})
	sender, receiver := nw.Node(0), nw.Node(1)

	var outcome Outcome
	var err error
	runActors(nw, func() {
		outcome, err = nw.Attempt(context.Background(), sender, receiver)
	})

	assert.Nil(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, 0, sender.Retries())
	assert.Equal(t, MacSuccess, sender.State())
	assert.False(t, receiver.RtsReceived())
	assert.False(t, sender.IsTransmitting())

	// DIFS, 0 backoff slots, SIFS, SIFS, DIFS
	assert.Equal(t, []Sample{{1, 50000}, {1, 120000}}, sender.History())
	assert.Equal(t, Timestamp(120000), nw.Now())

	// idle + DIFS for the sender, RTS for the receiver
	assert.InDelta(t, 1.2, sender.EnergyConsumed(), 1e-9)
	assert.InDelta(t, 2.0, receiver.EnergyConsumed(), 1e-9)
	assert.Equal(t, []Outcome{OutcomeSuccess}, obs.outcomes[0])
}

func TestConcurrentSendersToSameReceiver(t *testing.T) {
	obs := newRecordingObserver()
	nw := newTestNetwork(t, obs, [2]float64{0, 0}, [2]float64{5, 0}, [2]float64{-5, 0})
	receiver := nw.Node(0)
	senders := []*Node{nw.Node(1), nw.Node(2)}

	outcomes := make([]Outcome, 2)
	errs := make([]error, 2)
	runActors(nw,
		func() { outcomes[0], errs[0] = nw.Attempt(context.Background(), senders[0], receiver) },
		func() { outcomes[1], errs[1] = nw.Attempt(context.Background(), senders[1], receiver) },
	)

	for i := range senders {
		assert.Nil(t, errs[i])
		assert.Equal(t, OutcomeSuccess, outcomes[i])
		assert.Equal(t, 0, senders[i].Retries())
	}

	busy0 := obs.count(senders[0].Id, MacReceiverBusy)
	busy1 := obs.count(senders[1].Id, MacReceiverBusy)
	assert.True(t, (busy0 == 0) != (busy1 == 0), "exactly one sender sees the receiver busy: %d %d", busy0, busy1)

	winner := senders[0]
	if busy0 > 0 {
		winner = senders[1]
	}
	assert.Equal(t, []Sample{{1, 50000}, {1, 120000}}, winner.History())
	assert.Equal(t, []Timestamp{50000}, obs.at(winner.Id, MacAwaitingHandshake)[:1])

	// each sender was accepted exactly once
	assert.InDelta(t, 4.0, receiver.EnergyConsumed(), 1e-9)
	assert.False(t, receiver.RtsReceived())
}

func TestPersistentCollisionGivesUp(t *testing.T) {
	obs := newRecordingObserver()
	nw := newTestNetwork(t, obs, [2]float64{0, 0}, [2]float64{5, 0}, [2]float64{0, 5})
	sender, receiver, jammer := nw.Node(0), nw.Node(1), nw.Node(2)
	jammer.setTransmitting(true)

	var outcome Outcome
	var err error
	runActors(nw, func() {
		outcome, err = nw.Attempt(context.Background(), sender, receiver)
	})

	assert.Equal(t, OutcomeGiveUp, outcome)
	assert.True(t, errors.Is(err, ErrMaxRetriesExceeded))
	assert.Equal(t, 0, sender.Retries())
	assert.Equal(t, MacGiveUp, sender.State())
	assert.Equal(t, DefaultMaxRetries, obs.count(sender.Id, MacCollision))
	assert.False(t, receiver.RtsReceived())

	history := sender.History()
	require.Len(t, history, DefaultMaxRetries)
	for i, s := range history {
		assert.Equal(t, 1<<i, s.Cw, "no success sample is recorded")
		if i > 0 {
			assert.True(t, s.Timestamp > history[i-1].Timestamp)
		}
	}

	for _, amount := range obs.energy {
		assert.True(t, amount >= 0)
	}
}

func TestSameInstantTransmissionsCollide(t *testing.T) {
	obs := newRecordingObserver()
	nw := newTestNetwork(t, obs, [2]float64{0, 0}, [2]float64{10, 0}, [2]float64{-5, 0}, [2]float64{15, 0})
	s1, s2, r1, r2 := nw.Node(0), nw.Node(1), nw.Node(2), nw.Node(3)

	runActors(nw,
		func() { _, _ = nw.Attempt(context.Background(), s1, r1) },
		func() { _, _ = nw.Attempt(context.Background(), s2, r2) },
	)

	// both transmit from 70ms and check at 120ms
	assert.Equal(t, Timestamp(120000), obs.at(s1.Id, MacCollision)[0])
	assert.Equal(t, Timestamp(120000), obs.at(s2.Id, MacCollision)[0])
	assert.False(t, s1.IsTransmitting())
	assert.False(t, s2.IsTransmitting())
}

func TestNavIsRecordedOnReceiverNeighbors(t *testing.T) {
	nw := newTestNetwork(t, nil, [2]float64{0, 0}, [2]float64{5, 0}, [2]float64{10, 0})
	sender, receiver, bystander := nw.Node(0), nw.Node(1), nw.Node(2)

	runActors(nw, func() {
		_, _ = nw.Attempt(context.Background(), sender, receiver)
	})

	assert.Equal(t, 5.0, bystander.Nav())
	assert.Equal(t, Timestamp(70000+5*20000), bystander.NavExpiry())
	assert.Equal(t, 0.0, sender.Nav())
	assert.Equal(t, 0.0, receiver.Nav())
}

func TestAlreadyTransmittingSenderDoesNotSendRts(t *testing.T) {
	nw := newTestNetwork(t, nil, [2]float64{0, 0}, [2]float64{5, 0})
	sender, receiver := nw.Node(0), nw.Node(1)
	sender.setTransmitting(true)

	var outcome Outcome
	var err error
	runActors(nw, func() {
		outcome, err = nw.Attempt(context.Background(), sender, receiver)
	})

	assert.Equal(t, OutcomeAlreadyTransmitting, outcome)
	assert.True(t, errors.Is(err, ErrAlreadyTransmitting))
	assert.False(t, receiver.RtsReceived())
	assert.Equal(t, 0.0, receiver.EnergyConsumed())
}

func TestAttemptCancelled(t *testing.T) {
	nw := newTestNetwork(t, nil, [2]float64{0, 0}, [2]float64{5, 0})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outcome Outcome
	var err error
	runActors(nw, func() {
		outcome, err = nw.Attempt(ctx, nw.Node(0), nw.Node(1))
	})
	assert.Equal(t, OutcomeAborted, outcome)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, MacIdle, nw.Node(0).State())
}

// yieldCancelClock cancels the run when sender yields after its collision check.
type yieldCancelClock struct {
	*clock.VirtualClock
	cancel context.CancelFunc
	sender *Node
}

func (c *yieldCancelClock) Sleep(ctx context.Context, d time.Duration) error {
	if d == 0 && c.sender != nil && c.sender.IsTransmitting() {
		c.cancel()
	}
	return c.VirtualClock.Sleep(ctx, d)
}

func TestTransmitDataCancelledDuringYield(t *testing.T) {
	prng.Init(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := &yieldCancelClock{VirtualClock: clock.NewVirtualClock(), cancel: cancel}
	obs := newRecordingObserver()
	nw, err := NewNetwork(NetworkConfig{
		Params:   DefaultParams(),
		Costs:    energy.DefaultCostTable(),
		Clock:    clk,
		Nodes:    []NodeConfig{{ID: 0}, {ID: 1, X: 5}},
		Observer: obs,
	})
	require.Nil(t, err)
	sender, receiver := nw.Node(0), nw.Node(1)
	clk.sender = sender

	var outcome Outcome
	runActors(nw, func() {
		outcome, err = nw.Attempt(ctx, sender, receiver)
	})

	assert.Equal(t, OutcomeAborted, outcome)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, sender.IsTransmitting())
	assert.False(t, receiver.RtsReceived())
	assert.Equal(t, MacIdle, sender.State())
	assert.Equal(t, 0, obs.count(0, MacSuccess))
	assert.Equal(t, []Outcome{OutcomeAborted}, obs.outcomes[0])
}

func TestHonorNavDefersBackoff(t *testing.T) {
	prng.Init(1)
	params := DefaultParams()
	params.HonorNav = true
	nw, err := NewNetwork(NetworkConfig{
		Params: params,
		Costs:  energy.DefaultCostTable(),
		Clock:  clock.NewVirtualClock(),
		Nodes:  []NodeConfig{{ID: 0}, {ID: 1, X: 5}},
	})
	require.Nil(t, err)
	sender, receiver := nw.Node(0), nw.Node(1)
	sender.UpdateNav(5, 200000)

	runActors(nw, func() {
		_, _ = nw.Attempt(context.Background(), sender, receiver)
	})
	assert.Equal(t, []Sample{{1, 200000}, {1, 270000}}, sender.History())
}
