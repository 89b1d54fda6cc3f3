package engine

import (
	"context"
	"testing"
	"time"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/errors"
	"github.com/storyloom/storyflow/pkg/graph"
	"github.com/storyloom/storyflow/pkg/layout"
)

func testNodes() []graph.Node {
	return []graph.Node{
		{ID: "el-1", Kind: entity.KindElement, Width: 140, Height: 50},
		{ID: "pz-1", Kind: entity.KindPuzzle, Width: 180, Height: 80},
		{ID: "el-2", Kind: entity.KindElement, Width: 140, Height: 50},
	}
}

func testEdges() []graph.Edge {
	return []graph.Edge{
		{ID: "1", Source: "el-1", Target: "pz-1", Kind: graph.EdgeRequirement, Weight: 1, MinRankGap: 1},
		{ID: "2", Source: "pz-1", Target: "el-2", Kind: graph.EdgeReward, Weight: 1, MinRankGap: 1},
	}
}

// stubAlgorithm fails or blocks on demand.
type stubAlgorithm struct {
	name    string
	fail    bool
	started chan struct{}
	release chan struct{}
}

func (s *stubAlgorithm) Name() string { return s.name }

func (s *stubAlgorithm) Layout(ctx context.Context, nodes []graph.Node, edges []graph.Edge) ([]graph.Node, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fail {
		return nil, errors.New(errors.ErrCodeInternal, "stub failure")
	}
	out := make([]graph.Node, len(nodes))
	copy(out, nodes)
	return out, nil
}

func newTestEngine() *Engine {
	return New(DefaultRegistry(layout.DefaultOptions()), layout.DefaultOptions(), nil)
}

func TestApplyHierarchical(t *testing.T) {
	e := newTestEngine()
	op, err := e.Apply(context.Background(), Request{
		Nodes:     testNodes(),
		Edges:     testEdges(),
		Algorithm: AlgoHierarchical,
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if op.Algorithm != AlgoHierarchical || op.FellBack {
		t.Errorf("op = %+v, want hierarchical without fallback", op)
	}
	if len(op.Nodes) != 3 {
		t.Errorf("got %d nodes, want 3", len(op.Nodes))
	}
	if op.ID == "" {
		t.Error("operation has no ID")
	}
	if e.State() != StateComplete {
		t.Errorf("state = %s, want complete", e.State())
	}
}

func TestApplyRejectsConcurrentOperation(t *testing.T) {
	e := newTestEngine()
	stub := &stubAlgorithm{
		name:    "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	e.registry.Register(stub)

	done := make(chan error, 1)
	go func() {
		_, err := e.Apply(context.Background(), Request{Nodes: testNodes(), Algorithm: "slow"})
		done <- err
	}()
	<-stub.started

	_, err := e.Apply(context.Background(), Request{Nodes: testNodes(), Algorithm: AlgoHierarchical})
	if !errors.Is(err, errors.ErrCodeLayoutBusy) {
		t.Errorf("second Apply error = %v, want LAYOUT_BUSY", err)
	}

	close(stub.release)
	if err := <-done; err != nil {
		t.Errorf("first Apply error: %v", err)
	}

	// A finished engine admits the next operation.
	if _, err := e.Apply(context.Background(), Request{Nodes: testNodes(), Algorithm: AlgoHierarchical}); err != nil {
		t.Errorf("Apply after completion error: %v", err)
	}
}

func TestApplyFallsBackOnFailure(t *testing.T) {
	e := newTestEngine()
	e.registry.Register(&stubAlgorithm{name: "broken", fail: true})

	op, err := e.Apply(context.Background(), Request{
		Nodes:     testNodes(),
		Edges:     testEdges(),
		Algorithm: "broken",
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if !op.FellBack || op.Algorithm != AlgoHierarchical {
		t.Errorf("op = %+v, want hierarchical fallback", op)
	}
}

func TestApplyUnknownAlgorithmUsesHierarchical(t *testing.T) {
	e := newTestEngine()
	op, err := e.Apply(context.Background(), Request{
		Nodes:     testNodes(),
		Algorithm: "no-such-algorithm",
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if op.Algorithm != AlgoHierarchical {
		t.Errorf("algorithm = %s, want hierarchical", op.Algorithm)
	}
}

func TestCancelInFlightOperation(t *testing.T) {
	e := newTestEngine()
	stub := &stubAlgorithm{
		name:    "blocking",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	e.registry.Register(stub)

	done := make(chan error, 1)
	go func() {
		_, err := e.Apply(context.Background(), Request{Nodes: testNodes(), Algorithm: "blocking"})
		done <- err
	}()
	<-stub.started
	e.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, errors.ErrCodeLayoutCancelled) {
			t.Errorf("Apply error = %v, want LAYOUT_CANCELLED", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled operation never returned")
	}
	if e.State() != StateCancelled {
		t.Errorf("state = %s, want cancelled", e.State())
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	nodes := testNodes()
	before := make([]graph.Node, len(nodes))
	copy(before, nodes)

	if _, err := e.Apply(context.Background(), Request{Nodes: nodes, Edges: testEdges()}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	for i := range nodes {
		if nodes[i] != before[i] {
			t.Errorf("input node %d mutated", i)
		}
	}
}

func TestProgressiveForceReportsProgress(t *testing.T) {
	e := newTestEngine()
	calls := 0
	lastDone, lastTotal := 0, 0
	op, err := e.Apply(context.Background(), Request{
		Nodes:     testNodes(),
		Edges:     testEdges(),
		Algorithm: AlgoForce,
		Progress: func(done, total int) {
			calls++
			lastDone, lastTotal = done, total
		},
	})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if calls == 0 {
		t.Fatal("progress callback never invoked")
	}
	if lastDone != lastTotal {
		t.Errorf("final progress %d/%d, want completion", lastDone, lastTotal)
	}
	if len(op.Nodes) != 3 {
		t.Errorf("got %d nodes, want 3", len(op.Nodes))
	}
}
