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

package simulation

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/openthread/csmasim/logger"
	"github.com/openthread/csmasim/mac"
	"github.com/openthread/csmasim/visualize"
)

var ErrAlreadyStarted = errors.New("simulation already started")

// Run starts one control flow per transmitter and returns once all of them are done or ctx is done.
// The result is also delivered to the visualizer and, if an output directory is set, saved as files.
func (s *Simulation) Run(ctx context.Context) (*visualize.RunResult, error) {
	s.lock.Lock()
	if s.started {
		s.lock.Unlock()
		return nil, ErrAlreadyStarted
	}
	s.started = true
	s.lock.Unlock()

	logger.Infof("simulation %s started", s.runId)
	s.kpiMgr.Start()
	err := s.runTransmitters(ctx)
	res := s.finish(err)
	return res, err
}

func (s *Simulation) runTransmitters(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// all transmitters are actors of the clock before any of them runs
	s.clock.Join(len(s.cfg.Transmitters))
	for _, id := range s.cfg.Transmitters {
		sender := s.network.Node(id)
		g.Go(func() error {
			defer s.clock.Leave()
			return s.transmit(gctx, sender)
		})
	}
	return g.Wait()
}

// transmit waits until none of the receivers is claimed, then attempts every receiver once.
func (s *Simulation) transmit(ctx context.Context, sender *mac.Node) error {
	for s.anyReceiverClaimed() {
		if err := s.clock.Sleep(ctx, s.cfg.Mac.SlotTime); err != nil {
			return err
		}
	}

	topo := s.network.Topology()
	for _, id := range s.cfg.Receivers {
		receiver := s.network.Node(id)
		if !topo.InRange(sender.Id, receiver.Id) {
			logger.Infof("%s is out of range of %s (%.2f > %.2f)", receiver, sender,
				topo.Distance(sender.Id, receiver.Id), topo.Range())
			s.OnAttemptDone(sender.Id, receiver.Id, s.Now(), mac.OutcomeOutOfRange)
			continue
		}

		outcome, err := s.network.Attempt(ctx, sender, receiver)
		switch {
		case err == nil:
			logger.Debugf("%s -> %s: %s", sender, receiver, outcome)
		case outcome == mac.OutcomeAborted:
			return err
		default:
			logger.Infof("%s -> %s: %s (%v)", sender, receiver, outcome, err)
		}
	}
	return nil
}

func (s *Simulation) anyReceiverClaimed() bool {
	for _, id := range s.cfg.Receivers {
		if s.network.Node(id).RtsReceived() {
			return true
		}
	}
	return false
}

func (s *Simulation) finish(err error) *visualize.RunResult {
	now := s.Now()
	if err != nil {
		logger.Warnf("simulation %s stopped at %dus: %v", s.runId, now, err)
	} else {
		logger.Infof("simulation %s done at %dus", s.runId, now)
	}

	s.kpiMgr.Stop(err)
	s.energyAnalyser.StoreNetworkEnergy(now)
	res := s.buildResult(err)

	s.lock.Lock()
	s.result = res
	s.lock.Unlock()

	if len(s.cfg.OutputDir) > 0 {
		if err := s.energyAnalyser.SaveEnergyDataToFile(s.cfg.OutputDir, s.runId, now); err != nil {
			logger.Errorf("saving energy results failed: %v", err)
		}
		if err := s.kpiMgr.SaveDefaultFile(); err != nil {
			logger.Errorf("saving KPI file failed: %v", err)
		}
	}
	s.vis.OnRunDone(res)
	logger.CloseNodeLoggers()
	return res
}
