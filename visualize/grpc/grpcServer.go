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

package visualize_grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/openthread/csmasim/logger"
)

const watchQueueSize = 1024

type grpcServer struct {
	vis     *grpcVisualizer
	server  *grpc.Server
	address string

	lock     sync.Mutex
	watchers map[chan *structpb.Struct]struct{}
	closed   bool
}

func newGrpcServer(vis *grpcVisualizer, address string) *grpcServer {
	server := grpc.NewServer(grpc.ReadBufferSize(1024*8), grpc.WriteBufferSize(1024*64))
	gs := &grpcServer{
		vis:      vis,
		server:   server,
		address:  address,
		watchers: map[chan *structpb.Struct]struct{}{},
	}
	RegisterResultsServer(server, gs)
	return gs
}

func (gs *grpcServer) Summary(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(gs.vis.summary())
}

func (gs *grpcServer) Watch(req *emptypb.Empty, stream grpc.ServerStream) error {
	ch := gs.addWatcher()
	if ch == nil {
		return nil
	}
	defer gs.removeWatcher(ch)
	logger.Debugf("New gRPC watch request received.")

	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()
	heartbeatEvent, _ := structpb.NewStruct(map[string]interface{}{"type": "heartbeat"})

	var err error
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				goto exit
			}
			if err = stream.SendMsg(event); err != nil {
				goto exit
			}
		case <-heartbeat.C:
			if err = stream.SendMsg(heartbeatEvent); err != nil {
				goto exit
			}
		case <-stream.Context().Done():
			err = stream.Context().Err()
			goto exit
		}
	}

exit:
	logger.Debugf("Watch stream exit: %v", err)
	return err
}

func (gs *grpcServer) addWatcher() chan *structpb.Struct {
	gs.lock.Lock()
	defer gs.lock.Unlock()
	if gs.closed {
		return nil
	}
	ch := make(chan *structpb.Struct, watchQueueSize)
	gs.watchers[ch] = struct{}{}
	return ch
}

func (gs *grpcServer) removeWatcher(ch chan *structpb.Struct) {
	gs.lock.Lock()
	defer gs.lock.Unlock()
	if _, ok := gs.watchers[ch]; ok {
		delete(gs.watchers, ch)
		close(ch)
	}
}

func (gs *grpcServer) numWatchers() int {
	gs.lock.Lock()
	defer gs.lock.Unlock()
	return len(gs.watchers)
}

// SendEvent queues an event for every watcher. Slow watchers lose events rather than block the run.
func (gs *grpcServer) SendEvent(fields map[string]interface{}) {
	gs.lock.Lock()
	defer gs.lock.Unlock()
	if len(gs.watchers) == 0 {
		return
	}

	event, err := structpb.NewStruct(fields)
	if err != nil {
		logger.Warnf("gRPC event dropped: %v", err)
		return
	}
	for ch := range gs.watchers {
		select {
		case ch <- event:
		default:
		}
	}
}

func (gs *grpcServer) Run() error {
	lis, err := net.Listen("tcp", gs.address)
	if err != nil {
		return err
	}
	return gs.Serve(lis)
}

func (gs *grpcServer) Serve(lis net.Listener) error {
	logger.Infof("gRPC results server serving on %s ...", lis.Addr())
	return gs.server.Serve(lis)
}

func (gs *grpcServer) stop() {
	gs.lock.Lock()
	gs.closed = true
	for ch := range gs.watchers {
		delete(gs.watchers, ch)
		close(ch)
	}
	gs.lock.Unlock()
	gs.server.Stop()
}
