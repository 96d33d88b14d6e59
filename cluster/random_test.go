package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcsommer/vldmgo/transport"
)

func distinctAddrs(conns []*transport.Connection) map[string]struct{} {
	seen := make(map[string]struct{}, len(conns))
	for _, c := range conns {
		seen[c.Addr()] = struct{}{}
	}
	return seen
}

func TestRandomPreferenceEmpty(t *testing.T) {
	require.Nil(t, randomPreference(nil))
}

func TestRandomPreferenceSingleConnection(t *testing.T) {
	only := transport.New("node-a:1", transport.Config{})
	got := randomPreference([]*transport.Connection{only})
	require.Equal(t, []*transport.Connection{only}, got)
}

func TestRandomPreferenceSamplesUpToTwoDistinct(t *testing.T) {
	pool := []*transport.Connection{
		transport.New("node-a:1", transport.Config{}),
		transport.New("node-b:1", transport.Config{}),
		transport.New("node-c:1", transport.Config{}),
		transport.New("node-d:1", transport.Config{}),
		transport.New("node-e:1", transport.Config{}),
	}

	// Run many trials since selection is random; the invariants (never more
	// than two, never a repeated node, always drawn from the pool) must
	// hold on every trial.
	for i := 0; i < 200; i++ {
		got := randomPreference(pool)
		require.Len(t, got, 2)
		require.NotEqual(t, got[0], got[1])
		require.Len(t, distinctAddrs(got), 2)
		for _, c := range got {
			require.Contains(t, pool, c)
		}
	}
}

func TestConnectionsForFallsBackToRandomPreferenceWhenRoutingStrategyUnsupported(t *testing.T) {
	c := New("seed:0", Config{})
	c.stores.Store("widgets", &routedStore{cfg: &StoreConfig{
		Name:              "widgets",
		Persistence:       "read-only",
		RoutingStrategy:   "no-router-declared",
		ReplicationFactor: 1,
	}})

	nodeA := transport.New("node-a:1", transport.Config{})
	nodeB := transport.New("node-b:1", transport.Config{})
	c.conns.Store(0, nodeA)
	c.conns.Store(1, nodeB)

	c.mu.Lock()
	c.bootstrapped = true
	c.topology = &Topology{PartitionToNode: []int{0, 1}}
	c.mu.Unlock()

	conns, err := c.connectionsFor("widgets", []byte("any-key"))
	require.NoError(t, err)
	require.Len(t, conns, 2)
	require.Len(t, distinctAddrs(conns), 2)
}
