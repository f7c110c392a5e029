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
	"time"

	"github.com/pkg/errors"

	"github.com/openthread/csmasim/energy"
	. "github.com/openthread/csmasim/types"
)

// Attempt runs the contention cycle of sender towards receiver until the frame is delivered or the
// sender gives up. Every cycle waits a DIFS, draws a backoff and waits it out before sending the RTS;
// a busy receiver or a collision increments the retries and starts another cycle.
//
// Returns OutcomeSuccess with a nil error, or OutcomeGiveUp with ErrMaxRetriesExceeded. A sender
// that is already transmitting gets OutcomeAlreadyTransmitting with ErrAlreadyTransmitting, and a
// cancelled ctx ends the attempt with OutcomeAborted and the context error.
func (nw *Network) Attempt(ctx context.Context, sender *Node, receiver *Node) (Outcome, error) {
	outcome, err := nw.attempt(ctx, sender, receiver)
	nw.observer.OnAttemptDone(sender.Id, receiver.Id, nw.Now(), outcome)
	return outcome, err
}

func (nw *Network) attempt(ctx context.Context, sender *Node, receiver *Node) (Outcome, error) {
	for {
		nw.setState(sender, receiver.Id, MacBackoff)
		if err := nw.deferAccess(ctx, sender); err != nil {
			return nw.abort(sender, receiver, err)
		}

		slots, sample, err := sender.drawBackoff(nw.Now(), nw.params.MaxRetries)
		if err != nil {
			sender.resetRetries()
			nw.setState(sender, receiver.Id, MacGiveUp)
			sender.log.Infof("reached maximum number of retries, transmission to %s failed", receiver)
			return OutcomeGiveUp, errors.Wrapf(err, "%s -> %s", sender, receiver)
		}
		nw.observer.OnSample(sender.Id, sample)
		nw.observer.OnBackoff(sender.Id, sample.Timestamp, sender.Retries(), slots)
		sender.log.Debugf("backoff %d slots (cw=%d)", slots, sample.Cw)

		if err := nw.clock.Sleep(ctx, time.Duration(slots)*nw.params.SlotTime); err != nil {
			return nw.abort(sender, receiver, err)
		}

		if sender.IsTransmitting() {
			sender.log.Warnf("already transmitting, RTS to %s not sent", receiver)
			nw.setState(sender, receiver.Id, MacIdle)
			return OutcomeAlreadyTransmitting, errors.Wrapf(ErrAlreadyTransmitting, "%s", sender)
		}

		distance := nw.topo.Distance(sender.Id, receiver.Id)
		nw.addEnergy(sender, energy.ActivityBackoff,
			nw.costs.Cost(energy.ActivityBackoff, slots, nw.params.CwMin, distance))

		nw.setState(sender, receiver.Id, MacAwaitingHandshake)
		err = nw.InitiateHandshake(ctx, sender, receiver)
		switch {
		case err == nil:
			nw.setState(sender, receiver.Id, MacSuccess)
			return OutcomeSuccess, nil
		case errors.Is(err, ErrReceiverBusy):
			nw.setState(sender, receiver.Id, MacReceiverBusy)
		case errors.Is(err, ErrCollision):
			nw.setState(sender, receiver.Id, MacCollision)
		default:
			return nw.abort(sender, receiver, err)
		}
		retries := sender.incRetries()
		sender.log.Debugf("%v, retries=%d", err, retries)
	}
}

// deferAccess waits the DIFS that precedes every backoff, and, when NAV is honored, until the
// node's NAV has expired.
func (nw *Network) deferAccess(ctx context.Context, sender *Node) error {
	if err := nw.clock.Sleep(ctx, nw.params.Difs); err != nil {
		return err
	}
	if !nw.params.HonorNav {
		return nil
	}

	now := nw.Now()
	if expiry := sender.NavExpiry(); expiry > now {
		sender.log.Debugf("medium reserved, deferring %dus", expiry-now)
		return nw.clock.Sleep(ctx, time.Duration(expiry-now)*time.Microsecond)
	}
	return nil
}

func (nw *Network) abort(sender *Node, receiver *Node, err error) (Outcome, error) {
	sender.resetRetries()
	nw.setState(sender, receiver.Id, MacIdle)
	return OutcomeAborted, err
}
