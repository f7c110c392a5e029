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

	"github.com/openthread/csmasim/energy"
	. "github.com/openthread/csmasim/types"
)

// InitiateHandshake runs the RTS/CTS exchange from sender to receiver, followed by the data
// transmission. It returns ErrReceiverBusy if the receiver already accepted another RTS, ErrCollision
// if a neighbor of the sender transmitted at the same time, or the context error.
func (nw *Network) InitiateHandshake(ctx context.Context, sender *Node, receiver *Node) error {
	nw.addEnergy(sender, energy.ActivityIdle, nw.costs.Cost(energy.ActivityIdle, 0, nw.params.CwMin))
	sender.log.Debugf("RTS to %s", receiver)
	if err := nw.clock.Sleep(ctx, nw.params.Sifs); err != nil {
		return err
	}

	if err := receiver.ReceiveRts(sender.Id); err != nil {
		sender.log.Debugf("%s has already received an RTS, ignoring RTS from %s", receiver, sender)
		return err
	}
	defer receiver.ReleaseRts(sender.Id)

	return nw.sendCts(ctx, receiver, sender)
}

// sendCts answers an accepted RTS: the receiver announces the reservation to its other neighbors
// and lets the sender transmit.
func (nw *Network) sendCts(ctx context.Context, receiver *Node, sender *Node) error {
	nw.addEnergy(receiver, energy.ActivityRts, nw.costs.Cost(energy.ActivityRts, 0, nw.params.CwMin))
	receiver.log.Debugf("CTS to %s", sender)
	if err := nw.clock.Sleep(ctx, nw.params.Sifs); err != nil {
		return err
	}

	navSlots := nw.params.NavSlots()
	now := nw.Now()
	expiry := now + uint64(navSlots*float64(nw.params.SlotTime.Microseconds()))
	for _, nb := range receiver.neighbors {
		if nb == sender {
			continue
		}
		nb.UpdateNav(navSlots, expiry)
		nb.log.Tracef("NAV updated to %.1f slots", navSlots)
		nw.observer.OnNavUpdate(nb.Id, now, navSlots)
	}

	return nw.TransmitData(ctx, sender, receiver.Id)
}

// TransmitData sends the data frame of sender. The transmission collides if any neighbor of the
// sender is transmitting when the DIFS has elapsed. The sender's transmitting flag is cleared only
// after every sender of the same instant has done its collision check. If ctx is done before that,
// the context error is returned instead of the outcome.
func (nw *Network) TransmitData(ctx context.Context, sender *Node, receiver NodeId) error {
	sender.setTransmitting(true)
	nw.setState(sender, receiver, MacTransmitting)
	nw.addEnergy(sender, energy.ActivityDifs, nw.costs.Cost(energy.ActivityDifs, 0, nw.params.CwMin))
	if err := nw.clock.Sleep(ctx, nw.params.Difs); err != nil {
		sender.setTransmitting(false)
		return err
	}

	var collided *Node
	for _, nb := range sender.neighbors {
		if nb.IsTransmitting() {
			collided = nb
			break
		}
	}

	var result error
	if collided != nil {
		sender.log.Debugf("collision detected at %s", collided)
		result = ErrCollision
	} else {
		sample := sender.recordSuccess(nw.Now())
		sender.log.Debugf("data transmission to %s successful", GetNodeName(receiver))
		nw.observer.OnSample(sender.Id, sample)
	}

	// yield: let the other senders of this instant see the flag
	err := nw.clock.Sleep(ctx, 0)
	sender.setTransmitting(false)
	if err != nil {
		sender.log.Debugf("transmission to %s aborted: %v", GetNodeName(receiver), err)
		return err
	}
	return result
}
