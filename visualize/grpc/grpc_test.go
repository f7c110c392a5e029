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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

func startBufServer(t *testing.T) (*grpcVisualizer, *ResultsClient) {
	lis := bufconn.Listen(1 << 20)
	gv := newGrpcVisualizer("")
	go gv.serve(lis)
	t.Cleanup(gv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.Nil(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return gv, NewResultsClient(conn)
}

func TestSummary(t *testing.T) {
	gv, client := startBufServer(t)
	gv.SetRunInfo(visualize.RunInfo{RunId: "r1", Title: "hidden terminal"})
	gv.AddNode(0, 0, 0, RoleTransmitter)
	gv.AddNode(1, 5, 0, RoleReceiver)
	gv.OnSample(0, mac.Sample{Cw: 2, Timestamp: 50000})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := client.Summary(ctx)
	require.Nil(t, err)
	m := s.AsMap()
	assert.Equal(t, "r1", m["run_id"])
	assert.Equal(t, "hidden terminal", m["title"])
	assert.Equal(t, false, m["done"])

	nodes := m["nodes"].([]interface{})
	require.Len(t, nodes, 2)
	n0 := nodes[0].(map[string]interface{})
	assert.Equal(t, "Node 1", n0["name"])
	assert.Equal(t, "tx", n0["role"])
	assert.Equal(t, float64(2), n0["cw"])

	gv.OnRunDone(&visualize.RunResult{RunId: "r1", Duration: 120000, Energy: map[NodeId]float64{0: 1.2, 1: 2}})
	s, err = client.Summary(ctx)
	require.Nil(t, err)
	m = s.AsMap()
	assert.Equal(t, true, m["done"])
	assert.Equal(t, float64(120000), m["time_us"])
	assert.Equal(t, 2.0, m["energy"].(map[string]interface{})["Node 2"])
}

func TestWatch(t *testing.T) {
	gv, client := startBufServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Watch(ctx)
	require.Nil(t, err)

	require.Eventually(t, func() bool {
		return gv.server.numWatchers() == 1
	}, 3*time.Second, 10*time.Millisecond)

	gv.OnBackoff(0, 50000, 0, 1)
	gv.OnAttemptDone(0, 1, 120000, mac.OutcomeSuccess)

	ev, err := stream.Recv()
	require.Nil(t, err)
	for ev.AsMap()["type"] == "heartbeat" {
		ev, err = stream.Recv()
		require.Nil(t, err)
	}
	assert.Equal(t, "backoff", ev.AsMap()["type"])
	assert.Equal(t, float64(1), ev.AsMap()["slots"])

	ev, err = stream.Recv()
	require.Nil(t, err)
	for ev.AsMap()["type"] == "heartbeat" {
		ev, err = stream.Recv()
		require.Nil(t, err)
	}
	assert.Equal(t, "attempt", ev.AsMap()["type"])
	assert.Equal(t, "success", ev.AsMap()["outcome"])
}

func TestSendEventWithoutWatchers(t *testing.T) {
	gv := newGrpcVisualizer("")
	assert.Equal(t, 0, gv.server.numWatchers())
	gv.OnNavUpdate(2, 60000, 5)
	gv.Stop()
	assert.Nil(t, gv.server.addWatcher())
}
