package graph

import (
	"errors"
	"testing"
)

func TestAddNodeIdempotentAndOrdered(t *testing.T) {
	g := New()
	g.AddNode("USDT")
	g.AddNode("BTC")
	g.AddNode("USDT")
	g.AddNode("ETH")

	nodes := g.Nodes()
	want := []string{"USDT", "BTC", "ETH"}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(nodes))
	}
	for i, n := range want {
		if nodes[i] != n {
			t.Fatalf("node order mismatch at %d: want %s, got %s", i, n, nodes[i])
		}
	}
}

func TestAddEdgeRejectsDuplicateKeepsOriginal(t *testing.T) {
	g := New()
	if err := g.AddEdge("BTC", "USDT", 50000, Forward); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err := g.AddEdge("BTC", "USDT", 49000, Inverse)
	if err == nil {
		t.Fatal("expected duplicate edge to be rejected")
	}
	var dup *EdgeExistsError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *EdgeExistsError, got %T", err)
	}
	if dup.Existing.Rate != 50000 || dup.Existing.Direction != Forward {
		t.Fatalf("existing edge misreported: %+v", dup.Existing)
	}
	if dup.Rejected.Rate != 49000 || dup.Rejected.Direction != Inverse {
		t.Fatalf("rejected edge misreported: %+v", dup.Rejected)
	}
	e, ok := g.Edge("BTC", "USDT")
	if !ok || e.Rate != 50000 || e.Direction != Forward {
		t.Fatalf("original edge not retained: %+v ok=%v", e, ok)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", g.EdgeCount())
	}
}

func TestNeighborsUnknownNodeIsEmpty(t *testing.T) {
	g := New()
	if n := g.Neighbors("XRP"); len(n) != 0 {
		t.Fatalf("expected no neighbors for unknown node, got %v", n)
	}
}

func TestNeighborsPreserveInsertionOrder(t *testing.T) {
	g := New()
	for _, to := range []string{"USDT", "ETH", "BNB", "EUR"} {
		if err := g.AddEdge("BTC", to, 1.0, Forward); err != nil {
			t.Fatalf("insert BTC->%s: %v", to, err)
		}
	}
	got := g.Neighbors("BTC")
	want := []string{"USDT", "ETH", "BNB", "EUR"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("neighbor order mismatch at %d: want %s, got %s", i, want[i], got[i])
		}
	}
}
