package hashring

import (
	"reflect"
	"testing"
)

// fixtureRing builds a 730-partition ring where H([]byte{2,87,150,223,77})
// mod 730 lands exactly on partition 307 (the edge case that drives the
// hash accumulator through the -2^31 saturating-abs branch). Partition 307
// is owned by "nodeA" and partition 308 by "nodeB"; every other partition
// is owned by "nodeC" so the walk cannot pick up a third distinct node
// before R=2 is satisfied.
func fixtureRing() Ring {
	nodes := make([]string, 730)
	for i := range nodes {
		nodes[i] = "nodeC"
	}
	nodes[307] = "nodeA"
	nodes[308] = "nodeB"
	return Ring{Nodes: nodes}
}

func TestRouterHashEdgeCase(t *testing.T) {
	r, err := New("consistent-routing", 2)
	if err != nil {
		t.Fatal(err)
	}
	got := r.Partitions([]byte{2, 87, 150, 223, 77}, fixtureRing())
	want := []int{307, 308}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Partitions() = %v, want %v", got, want)
	}
}

func TestRouterStopsAtReplicaCount(t *testing.T) {
	// A ring where every partition has a distinct node: R below P must stop
	// early rather than walking the whole ring.
	nodes := make([]string, 10)
	for i := range nodes {
		nodes[i] = string(rune('A' + i))
	}
	r, err := New("consistent-routing", 3)
	if err != nil {
		t.Fatal(err)
	}
	got := r.Partitions([]byte("any-key"), Ring{Nodes: nodes})
	if len(got) != 3 {
		t.Fatalf("Partitions() len = %d, want 3", len(got))
	}
	seen := map[string]bool{}
	for _, p := range got {
		seen[nodes[p]] = true
	}
	if len(seen) != 3 {
		t.Fatalf("Partitions() returned duplicate nodes: %v", got)
	}
}

func TestRouterCapsAtDistinctNodeCount(t *testing.T) {
	// Only two distinct nodes exist even though R=5: the walk must stop
	// after a full lap instead of looping forever or duplicating a node.
	nodes := []string{"A", "B", "A", "B", "A", "B"}
	r, err := New("consistent-routing", 5)
	if err != nil {
		t.Fatal(err)
	}
	got := r.Partitions([]byte("k"), Ring{Nodes: nodes})
	if len(got) != 2 {
		t.Fatalf("Partitions() len = %d, want 2", len(got))
	}
}

func TestRouterRejectsBadStrategy(t *testing.T) {
	if _, err := New("random-routing", 2); err == nil {
		t.Fatal("expected error for unsupported routing strategy")
	}
}

func TestRouterRejectsNonPositiveReplicas(t *testing.T) {
	if _, err := New("consistent-routing", 0); err == nil {
		t.Fatal("expected error for R=0")
	}
	if _, err := New("consistent-routing", -1); err == nil {
		t.Fatal("expected error for negative R")
	}
}

func TestRouterEmptyRing(t *testing.T) {
	r, _ := New("consistent-routing", 2)
	got := r.Partitions([]byte("k"), Ring{})
	if got != nil {
		t.Fatalf("Partitions() on empty ring = %v, want nil", got)
	}
}
