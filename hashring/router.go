package hashring

import (
	"github.com/dcsommer/vldmgo/errors"
)

// Ring is the immutable partition→node table walked by the router. Index i
// holds the id of the node that owns partition i.
type Ring struct {
	Nodes []string
}

// Len returns the number of partitions in the ring.
func (r Ring) Len() int {
	return len(r.Nodes)
}

// Router maps keys to an ordered, distinct-node preference list of
// partition ids using the consistent-hash walk described in the wire spec:
// start at H(key) mod P, walk clockwise, collect a partition the first time
// its owning node is seen, and stop after R distinct nodes or a full lap.
type Router struct {
	strategy string
	replicas int
}

// New builds a Router. Only "consistent-routing" is a supported strategy,
// and replicas (R) must be positive; both are validated eagerly so a
// misconfigured store fails at construction, not at first request.
func New(strategy string, replicas int) (*Router, error) {
	if strategy != "consistent-routing" {
		return nil, errors.NewClient(errors.CodeUnsupportedRoutingStrategy, "unsupported routing strategy %q", strategy)
	}
	if replicas <= 0 {
		return nil, errors.NewClient(errors.CodeInvalidReplicaCount, "replica count must be positive, got %d", replicas)
	}
	return &Router{strategy: strategy, replicas: replicas}, nil
}

// Replicas returns the configured replication factor R.
func (r *Router) Replicas() int {
	return r.replicas
}

// Partitions returns the preference list for key against ring: up to R
// partition ids whose owning nodes are all distinct, walking clockwise from
// the master partition H(key) mod P.
func (r *Router) Partitions(key []byte, ring Ring) []int {
	p := ring.Len()
	if p == 0 {
		return nil
	}

	// Hash is always non-negative (saturating abs), so a plain modulo is
	// exact — no adjustment for a negative remainder is needed.
	master := int(Hash(key)) % p

	seenNodes := make(map[string]struct{}, r.replicas)
	result := make([]int, 0, r.replicas)

	i := master
	for {
		node := ring.Nodes[i]
		if _, seen := seenNodes[node]; !seen {
			seenNodes[node] = struct{}{}
			result = append(result, i)
			if len(result) >= r.replicas {
				break
			}
		}
		i = (i + 1) % p
		if i == master {
			break
		}
	}

	return result
}
