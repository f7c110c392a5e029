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
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultDifs              = 50 * time.Millisecond
	DefaultSifs              = 10 * time.Millisecond
	DefaultSlotTime          = 20 * time.Millisecond
	DefaultCwMin             = 15
	DefaultCwMax             = 1023
	DefaultMaxRetries        = 7
	DefaultTransmissionRange = 15.0
)

// Params are the MAC timing and contention parameters shared by all nodes of a network.
type Params struct {
	// Difs is waited before every backoff draw, including the first and each retry, and again before
	// the data frame. Sample timestamps therefore include one DIFS per contention cycle.
	Difs     time.Duration
	Sifs     time.Duration
	SlotTime time.Duration

	// CwMin and CwMax bound the contention window conceptually; the window itself is always 2^retries.
	CwMin      int
	CwMax      int
	MaxRetries int

	TransmissionRange float64

	// HonorNav makes a node defer its backoff until its NAV has expired.
	HonorNav bool
}

func DefaultParams() Params {
	return Params{
		Difs:              DefaultDifs,
		Sifs:              DefaultSifs,
		SlotTime:          DefaultSlotTime,
		CwMin:             DefaultCwMin,
		CwMax:             DefaultCwMax,
		MaxRetries:        DefaultMaxRetries,
		TransmissionRange: DefaultTransmissionRange,
	}
}

func (p Params) Validate() error {
	if p.Difs <= 0 || p.Sifs <= 0 || p.SlotTime <= 0 {
		return errors.Errorf("inter-frame spaces and slot time must be positive (difs=%v, sifs=%v, slot=%v)",
			p.Difs, p.Sifs, p.SlotTime)
	}
	if p.CwMin <= 0 || p.CwMin > p.CwMax {
		return errors.Errorf("contention window bounds must satisfy 0 < cw_min <= cw_max (cw_min=%d, cw_max=%d)",
			p.CwMin, p.CwMax)
	}
	if p.MaxRetries < 1 || p.MaxRetries > 30 {
		return errors.Errorf("max_retries must be within 1..30, got %d", p.MaxRetries)
	}
	if p.TransmissionRange <= 0 {
		return errors.Errorf("transmission range must be positive, got %f", p.TransmissionRange)
	}
	return nil
}

// NavSlots returns the NAV duration announced with a CTS, in slots.
func (p Params) NavSlots() float64 {
	return float64(p.Sifs+p.Difs+2*p.SlotTime) / float64(p.SlotTime)
}
