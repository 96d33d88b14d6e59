package cluster

import (
	"strconv"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/dcsommer/vldmgo/errors"
	"github.com/dcsommer/vldmgo/future"
	"github.com/dcsommer/vldmgo/hashring"
	"github.com/dcsommer/vldmgo/logging"
	"github.com/dcsommer/vldmgo/metrics"
	"github.com/dcsommer/vldmgo/transport"
	"github.com/dcsommer/vldmgo/wire"
)

// metadataStoreName is the reserved store the bootstrap sequence queries for
// cluster.xml and stores.xml.
const metadataStoreName = "metadata"

// Config bundles the cluster-wide tunables not already covered by
// transport.Config.
type Config struct {
	// Transport is forwarded to every node connection this cluster opens.
	Transport transport.Config
	// BootstrapRetryInterval is how long a failed bootstrap attempt waits
	// before trying the seed again. Defaults to 10s.
	BootstrapRetryInterval time.Duration
	// Logger receives cluster lifecycle events. Defaults to a no-op logger.
	Logger logging.ILogger
}

func (c Config) withDefaults() Config {
	if c.BootstrapRetryInterval <= 0 {
		c.BootstrapRetryInterval = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = logging.Noop()
	}
	if c.Transport.Logger == nil {
		c.Transport.Logger = c.Logger
	}
	return c
}

// routedStore is a StoreConfig plus its resolved consistent-hash Router,
// cached after the store's first lookup.
type routedStore struct {
	cfg    *StoreConfig
	router *hashring.Router
}

// Cluster owns the seed-driven bootstrap sequence, the current topology and
// store registry snapshot, and one persistent Connection per cluster node.
// A Cluster is safe for concurrent use.
type Cluster struct {
	seedAddr string
	cfg      Config

	conns  *xsync.MapOf[int, *transport.Connection]
	stores *xsync.MapOf[string, *routedStore]

	metrics *metrics.Recorder

	mu              sync.Mutex
	started         bool
	closed          bool
	bootstrapped    bool
	topology        *Topology
	ring            hashring.Ring
	bootstrapFuture *future.Future[struct{}]
}

// New creates a Cluster that bootstraps from seedAddr. Call Connect to begin
// bootstrapping.
func New(seedAddr string, cfg Config) *Cluster {
	return &Cluster{
		seedAddr: seedAddr,
		cfg:      cfg.withDefaults(),
		conns:    xsync.NewMapOf[int, *transport.Connection](),
		stores:   xsync.NewMapOf[string, *routedStore](),
		metrics:  metrics.New(),
	}
}

// Metrics returns a point-in-time snapshot of this Cluster's request,
// replica-retry, and bootstrap-attempt counters plus the current latency
// EWMA, one for the whole Cluster.
func (c *Cluster) Metrics() metrics.Snapshot {
	return c.metrics.Snapshot()
}

// Topology returns the most recently bootstrapped Topology, or nil if
// bootstrap has not yet completed at least once.
func (c *Cluster) Topology() *Topology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topology
}

// Connect starts the bootstrap loop, if it has not already been started,
// and returns a Future for the in-flight (or most recent) bootstrap
// attempt. Calling Connect again after a successful bootstrap returns an
// already-resolved Future.
func (c *Cluster) Connect() *future.Future[struct{}] {
	c.mu.Lock()
	if c.started {
		f := c.bootstrapFuture
		c.mu.Unlock()
		return f
	}
	c.started = true
	c.bootstrapFuture = future.New[struct{}]()
	f := c.bootstrapFuture
	c.mu.Unlock()

	go c.bootstrapLoop()
	return f
}

// bootstrapLoop retries the seed fetch until one attempt succeeds, then
// exits permanently. Each failed attempt fails that attempt's Future and
// installs a fresh one before sleeping, so callers that call Connect (or
// Store) after a failure park on the new attempt rather than the resolved,
// failed one.
func (c *Cluster) bootstrapLoop() {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		attemptFuture := c.bootstrapFuture
		c.mu.Unlock()

		err := c.bootstrapOnce()
		if err == nil {
			attemptFuture.Succeed(struct{}{})
			return
		}

		c.cfg.Logger.Warningf("bootstrap against seed %s failed: %v", c.seedAddr, err)
		attemptFuture.Fail(err)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.bootstrapFuture = future.New[struct{}]()
		c.mu.Unlock()

		time.Sleep(c.cfg.BootstrapRetryInterval)
	}
}

// bootstrapOnce dials the seed, fetches cluster.xml and stores.xml, and on
// success installs the resulting topology and store registry and opens a
// persistent Connection to every node.
func (c *Cluster) bootstrapOnce() error {
	c.metrics.RecordBootstrapAttempt()

	seed := transport.New(c.seedAddr, c.cfg.Transport)
	seed.Start()
	defer seed.Shutdown()

	clusterXML, err := c.fetchMetadata(seed, "cluster.xml")
	if err != nil {
		return err
	}
	storesXMLBytes, err := c.fetchMetadata(seed, "stores.xml")
	if err != nil {
		return err
	}

	topology, err := ParseClusterXML(clusterXML)
	if err != nil {
		return err
	}
	storeConfigs, err := ParseStoresXML(storesXMLBytes)
	if err != nil {
		return err
	}

	ring := buildRing(topology)
	for _, sc := range storeConfigs {
		c.stores.Store(sc.Name, &routedStore{cfg: sc})
	}

	c.mu.Lock()
	c.topology = topology
	c.ring = ring
	c.bootstrapped = true
	c.mu.Unlock()

	c.reconcileConnections(topology)
	return nil
}

// fetchMetadata issues a single get against the reserved metadata store on
// seed and waits for its answer. The request stays queued until seed has
// negotiated; a failed dial or negotiation fails it, and bootstrapLoop
// retries the whole attempt later.
func (c *Cluster) fetchMetadata(seed *transport.Connection, key string) ([]byte, error) {
	result := seed.Submit(wire.BuildGet(metadataStoreName, []byte(key)))
	body, err := result.Wait()
	if err != nil {
		return nil, err
	}
	vv, err := wire.ParseGetResponse(metadataStoreName, key, body)
	if err != nil {
		return nil, err
	}
	return vv.Value, nil
}

// buildRing converts a Topology's dense partition->node-id table into a
// hashring.Ring, whose Nodes are opaque distinct identifiers (the node id,
// stringified) rather than addresses, so the router's node-distinctness
// check works without depending on connection state.
func buildRing(t *Topology) hashring.Ring {
	nodes := make([]string, len(t.PartitionToNode))
	for i, nodeID := range t.PartitionToNode {
		nodes[i] = strconv.Itoa(nodeID)
	}
	return hashring.Ring{Nodes: nodes}
}

// reconcileConnections opens a Connection to every node in topology that
// this Cluster does not already have one for. Connections are never closed
// here on topology change; a node dropped from a later cluster.xml is left
// to idle out, since no in-flight request references it once routing stops
// selecting its partitions.
func (c *Cluster) reconcileConnections(t *Topology) {
	for id, node := range t.Nodes {
		if _, ok := c.conns.Load(id); ok {
			continue
		}
		conn := transport.New(node.Addr(), c.cfg.Transport)
		if _, loaded := c.conns.LoadOrStore(id, conn); !loaded {
			conn.Start()
		}
	}
}

// Store returns the store configuration for name, waiting on the in-flight bootstrap attempt if one has not
// completed yet. It fails with a ClientError if bootstrap has definitively
// not registered a store by that name, or if the store is not read-only.
func (c *Cluster) Store(name string) (*StoreConfig, error) {
	c.mu.Lock()
	bootstrapped := c.bootstrapped
	c.mu.Unlock()

	if !bootstrapped {
		if _, err := c.Connect().Wait(); err != nil {
			return nil, err
		}
	}

	rs, ok := c.stores.Load(name)
	if !ok {
		return nil, errors.NewClient(errors.CodeUnknownStore, "unknown store %q", name)
	}
	if !rs.cfg.IsReadOnly() {
		return nil, errors.NewClient(errors.CodeNotReadOnly, "store %q is not read-only", name)
	}
	return rs.cfg, nil
}

// Get resolves the preference list of replica connections owning encodedKey
// in storeName and issues the get, applying the replica retry policy.
func (c *Cluster) Get(storeName string, encodedKey []byte) *future.Future[*wire.VersionedValue] {
	c.metrics.RecordRequest()
	start := time.Now()

	conns, err := c.connectionsFor(storeName, encodedKey)
	if err != nil {
		result := future.New[*wire.VersionedValue]()
		result.Fail(err)
		return result
	}

	result := GetWithRetry(conns, storeName, encodedKey, c.metrics.RecordReplicaRetry)
	result.OnSuccess(func(*wire.VersionedValue) { c.metrics.RecordLatency(time.Since(start)) })
	result.OnFailure(func(error) { c.metrics.RecordLatency(time.Since(start)) })
	return result
}

func (c *Cluster) connectionsFor(storeName string, encodedKey []byte) ([]*transport.Connection, error) {
	rs, ok := c.stores.Load(storeName)
	c.mu.Lock()
	topology := c.topology
	ring := c.ring
	c.mu.Unlock()
	if !ok {
		return nil, errors.NewClient(errors.CodeUnknownStore, "unknown store %q", storeName)
	}

	router, err := c.routerFor(rs)
	if err != nil {
		if unresolvedRouter(err) {
			return randomPreference(c.allConnections()), nil
		}
		return nil, err
	}

	partitions := router.Partitions(encodedKey, ring)
	conns := make([]*transport.Connection, 0, len(partitions))
	seen := make(map[int]struct{}, len(partitions))
	for _, p := range partitions {
		nodeID := topology.PartitionToNode[p]
		if _, dup := seen[nodeID]; dup {
			continue
		}
		seen[nodeID] = struct{}{}
		conn, ok := c.conns.Load(nodeID)
		if !ok {
			continue
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

func (c *Cluster) routerFor(rs *routedStore) (*hashring.Router, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rs.router != nil {
		return rs.router, nil
	}
	router, err := hashring.New(rs.cfg.RoutingStrategy, rs.cfg.ReplicationFactor)
	if err != nil {
		return nil, err
	}
	rs.router = router
	return router, nil
}

// Close shuts down the bootstrap loop and every open node connection.
// Close is idempotent.
func (c *Cluster) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.conns.Range(func(id int, conn *transport.Connection) bool {
		conn.Shutdown()
		return true
	})
	c.metrics.Close()
}
