package cluster

import (
	"math/rand"

	"github.com/dcsommer/vldmgo/errors"
	"github.com/dcsommer/vldmgo/transport"
)

// unresolvedRouter reports whether err is the specific ClientError
// hashring.New returns for a store whose declared routing-strategy this
// client does not understand — the "caller has no routing metadata" case
// the random-selection fallback exists for, as distinct from a genuinely
// misconfigured replication factor.
func unresolvedRouter(err error) bool {
	ce, ok := err.(*errors.ClientError)
	return ok && ce.Code == errors.CodeUnsupportedRoutingStrategy
}

// randomPreference samples up to two distinct connections from conns
// uniformly at random and returns them in the order they should be tried
// sequentially. It is the fallback preference list for a store whose
// routing strategy this client cannot resolve into a hashring.Router.
func randomPreference(conns []*transport.Connection) []*transport.Connection {
	switch len(conns) {
	case 0:
		return nil
	case 1:
		return conns
	}
	i := rand.Intn(len(conns))
	j := rand.Intn(len(conns) - 1)
	if j >= i {
		j++
	}
	return []*transport.Connection{conns[i], conns[j]}
}

// allConnections returns every node connection this Cluster currently
// holds, in no particular order.
func (c *Cluster) allConnections() []*transport.Connection {
	conns := make([]*transport.Connection, 0)
	c.conns.Range(func(_ int, conn *transport.Connection) bool {
		conns = append(conns, conn)
		return true
	})
	return conns
}
