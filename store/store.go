// Package store implements Component G: the per-store facade that turns a
// caller's key into an encoded, compressed wire request and a wire response
// back into a decoded value. A Store holds a non-owning reference back to
// its Cluster; the Cluster is what actually owns node connections.
package store

import (
	"sync"

	"github.com/dcsommer/vldmgo/cluster"
	"github.com/dcsommer/vldmgo/codec"
	"github.com/dcsommer/vldmgo/compressor"
	"github.com/dcsommer/vldmgo/future"
	"github.com/dcsommer/vldmgo/wire"
)

// Store is a read-only handle to one named store on a Cluster.
type Store struct {
	cl   *cluster.Cluster
	name string

	mu          sync.Mutex
	cfg         *cluster.StoreConfig
	keySchema   *codec.VersionedSchema
	valueSchema *codec.VersionedSchema
	keyComp     compressor.Compressor
	valueComp   compressor.Compressor
}

// New returns a Store facade for name against cl. The store's configuration
// is not resolved until the first Get call, so this never blocks on
// bootstrap.
func New(cl *cluster.Cluster, name string) *Store {
	return &Store{cl: cl, name: name}
}

// Name returns the store's name.
func (s *Store) Name() string {
	return s.name
}

// Get encodes key, issues a get against the cluster's replica preference
// list for it, and decodes the response value. The returned Future parks
// behind cluster bootstrap if the store's configuration is not yet known;
// any encode or decode failure resolves the Future rather than panicking.
func (s *Store) Get(key interface{}) *future.Future[interface{}] {
	result := future.New[interface{}]()

	go func() {
		if err := s.ensureReady(); err != nil {
			result.Fail(err)
			return
		}

		s.mu.Lock()
		cfg, keySchema, keyComp, valueSchema, valueComp := s.cfg, s.keySchema, s.keyComp, s.valueSchema, s.valueComp
		s.mu.Unlock()

		encodedKey, err := keySchema.EncodeVersioned(key)
		if err != nil {
			result.Fail(err)
			return
		}
		wireKey, err := keyComp.Encode(encodedKey)
		if err != nil {
			result.Fail(err)
			return
		}

		vvFuture := s.cl.Get(cfg.Name, wireKey)
		vvFuture.OnSuccess(func(vv *wire.VersionedValue) {
			raw, err := valueComp.Decode(vv.Value)
			if err != nil {
				result.Fail(err)
				return
			}
			decoded, err := valueSchema.DecodeVersioned(raw)
			if err != nil {
				result.Fail(err)
				return
			}
			result.Succeed(decoded)
		})
		vvFuture.OnFailure(func(err error) {
			result.Fail(err)
		})
	}()

	return result
}

// ensureReady resolves this store's configuration and schemas the first
// time it is needed, waiting on cluster bootstrap if necessary. A failure
// here (bootstrap still retrying, transient ServerError) is never cached,
// so the next Get call tries again rather than being stuck with a stale
// error forever.
func (s *Store) ensureReady() error {
	s.mu.Lock()
	ready := s.cfg != nil
	s.mu.Unlock()
	if ready {
		return nil
	}

	cfg, err := s.cl.Store(s.name)
	if err != nil {
		return err
	}
	keySchema, err := cfg.BuildKeySchema()
	if err != nil {
		return err
	}
	valueSchema, err := cfg.BuildValueSchema()
	if err != nil {
		return err
	}
	keyComp, err := cfg.KeyCompressor()
	if err != nil {
		return err
	}
	valueComp, err := cfg.ValueCompressor()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.cfg == nil {
		s.cfg, s.keySchema, s.valueSchema, s.keyComp, s.valueComp = cfg, keySchema, valueSchema, keyComp, valueComp
	}
	s.mu.Unlock()
	return nil
}
