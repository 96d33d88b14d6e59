// Package vldm is the top-level convenience surface: Dial opens and
// bootstraps a Cluster, Open goes one step further and hands back a ready
// Store parsed out of a proto://host:port/store URL. Callers who need
// finer control construct cluster.Cluster and store.Store directly.
package vldm

import (
	"context"
	"time"

	"github.com/dcsommer/vldmgo/cluster"
	"github.com/dcsommer/vldmgo/config"
	"github.com/dcsommer/vldmgo/future"
	"github.com/dcsommer/vldmgo/logging"
	"github.com/dcsommer/vldmgo/store"
	"github.com/dcsommer/vldmgo/transport"
)

// Option customises the cluster.Config a Dial or Open call builds.
type Option func(*cluster.Config)

// WithDialTimeout overrides the per-connection dial timeout. Default 5s.
func WithDialTimeout(d time.Duration) Option {
	return func(c *cluster.Config) { c.Transport.DialTimeout = d }
}

// WithRequestTimeout overrides the per-request timeout. Default 5s.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *cluster.Config) { c.Transport.RequestTimeout = d }
}

// WithReconnectInterval overrides the idle health-check/reconnect cadence.
// Default 5s.
func WithReconnectInterval(d time.Duration) Option {
	return func(c *cluster.Config) { c.Transport.TickInterval = d }
}

// WithBootstrapRetryInterval overrides how long a failed bootstrap waits
// before retrying the seed. Default 10s.
func WithBootstrapRetryInterval(d time.Duration) Option {
	return func(c *cluster.Config) { c.BootstrapRetryInterval = d }
}

// WithProtocolTag overrides the 3-byte protocol negotiation tag. Default
// "pb0".
func WithProtocolTag(tag string) Option {
	return func(c *cluster.Config) { c.Transport.ProtocolTag = tag }
}

// WithDialer overrides how connections dial. Library code never needs
// this; it exists for tests that substitute an in-memory net.Pipe.
func WithDialer(d transport.Dialer) Option {
	return func(c *cluster.Config) { c.Transport.Dialer = d }
}

// WithLogger routes lifecycle events for the cluster and every connection
// it opens through l instead of a no-op logger.
func WithLogger(l logging.ILogger) Option {
	return func(c *cluster.Config) {
		c.Logger = l
		c.Transport.Logger = l
	}
}

// Dial builds a Cluster against seedAddr ("host:port"), applies opts, and
// waits for the first bootstrap attempt to either succeed or fail, or for
// ctx to be done. On any failure the Cluster is closed before returning.
func Dial(ctx context.Context, seedAddr string, opts ...Option) (*cluster.Cluster, error) {
	cfg := config.Default().ToClusterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	cl := cluster.New(seedAddr, cfg)
	if _, err := waitCtx(ctx, cl.Connect()); err != nil {
		cl.Close()
		return nil, err
	}
	return cl, nil
}

// Open parses rawURL ("proto://host:port/store"), dials the seed it names,
// and returns a Store facade for the store the URL's path names.
func Open(ctx context.Context, rawURL string, opts ...Option) (*store.Store, error) {
	clientCfg, storeName, err := config.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	cl, err := Dial(ctx, clientCfg.SeedAddr(), opts...)
	if err != nil {
		return nil, err
	}
	return store.New(cl, storeName), nil
}

// waitCtx adapts a Future's callback-based resolution to a context-aware
// blocking wait, for the one-shot Dial/Open convenience path.
func waitCtx[T any](ctx context.Context, f *future.Future[T]) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	f.OnSuccess(func(v T) { ch <- outcome{value: v} })
	f.OnFailure(func(err error) { ch <- outcome{err: err} })

	select {
	case o := <-ch:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
