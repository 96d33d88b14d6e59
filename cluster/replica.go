package cluster

import (
	"sync"

	"github.com/dcsommer/vldmgo/errors"
	"github.com/dcsommer/vldmgo/future"
	"github.com/dcsommer/vldmgo/transport"
	"github.com/dcsommer/vldmgo/wire"
)

// attempt issues one get against a single connection and adapts its raw
// response future into a decoded VersionedValue future.
func attempt(conn *transport.Connection, storeName string, encodedKey []byte) *future.Future[*wire.VersionedValue] {
	result := future.New[*wire.VersionedValue]()
	raw := conn.Submit(wire.BuildGet(storeName, encodedKey))
	raw.OnSuccess(func(body []byte) {
		vv, err := wire.ParseGetResponse(storeName, string(encodedKey), body)
		if err != nil {
			result.Fail(err)
			return
		}
		result.Succeed(vv)
	})
	raw.OnFailure(func(err error) {
		result.Fail(err)
	})
	return result
}

// GetWithRetry issues a get against conns, an ordered preference list of
// replica connections for one key, applying the replica retry policy: a
// ClientError from any replica (including KeyNotFound) is definitive and
// short-circuits every other replica; a ServerError moves on to the next
// one. When the first-preference connection is already known bad, every
// replica is raced in parallel instead of walked one at a time, so a caller
// is not stuck waiting out one dead node's timeout before trying the rest.
func GetWithRetry(conns []*transport.Connection, storeName string, encodedKey []byte, onRetry func()) *future.Future[*wire.VersionedValue] {
	if len(conns) == 0 {
		result := future.New[*wire.VersionedValue]()
		result.Fail(errors.NewServer(errors.CodeNoUsableConnection, "no replica connections available for store %q", storeName))
		return result
	}
	if conns[0].Health() == transport.HealthBad {
		return tryParallel(conns, storeName, encodedKey, onRetry)
	}
	return trySequential(conns, storeName, encodedKey, onRetry)
}

// trySequential walks conns in order, one at a time, stopping at the first
// success or ClientError.
func trySequential(conns []*transport.Connection, storeName string, encodedKey []byte, onRetry func()) *future.Future[*wire.VersionedValue] {
	result := future.New[*wire.VersionedValue]()
	trySequentialAt(conns, 0, storeName, encodedKey, result, onRetry)
	return result
}

func trySequentialAt(conns []*transport.Connection, i int, storeName string, encodedKey []byte, result *future.Future[*wire.VersionedValue], onRetry func()) {
	if i >= len(conns) {
		result.Fail(errors.NewServer(errors.CodeNoUsableConnection, "all %d replicas failed for store %q", len(conns), storeName))
		return
	}
	a := attempt(conns[i], storeName, encodedKey)
	a.OnSuccess(func(vv *wire.VersionedValue) { result.Succeed(vv) })
	a.OnFailure(func(err error) {
		if errors.IsClient(err) {
			result.Fail(err)
			return
		}
		if i+1 < len(conns) && onRetry != nil {
			onRetry()
		}
		trySequentialAt(conns, i+1, storeName, encodedKey, result, onRetry)
	})
}

// tryParallel races every replica in conns concurrently. Any ClientError
// (including KeyNotFound) is definitive and wins outright, since Future's
// first-call-wins semantics make every later resolution a no-op; a
// ServerError from a given replica only fails the whole request once every
// replica has reported a ServerError.
func tryParallel(conns []*transport.Connection, storeName string, encodedKey []byte, onRetry func()) *future.Future[*wire.VersionedValue] {
	result := future.New[*wire.VersionedValue]()

	var mu sync.Mutex
	remaining := len(conns)
	var lastErr error

	for _, conn := range conns {
		a := attempt(conn, storeName, encodedKey)
		a.OnSuccess(func(vv *wire.VersionedValue) { result.Succeed(vv) })
		a.OnFailure(func(err error) {
			if errors.IsClient(err) {
				result.Fail(err)
				return
			}
			mu.Lock()
			remaining--
			lastErr = err
			exhausted := remaining == 0
			mu.Unlock()
			if !exhausted && onRetry != nil {
				onRetry()
			}
			if exhausted {
				result.Fail(errors.WrapServer(errors.CodeNoUsableConnection, lastErr, "all %d replicas failed for store %q", len(conns), storeName))
			}
		})
	}
	return result
}
