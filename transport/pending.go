package transport

import "github.com/dcsommer/vldmgo/future"

// PendingRequest is a request frame queued on a Connection, waiting to be
// written to the wire. It is created when a caller submits a request and
// consumed exactly once: either dispatched and later resolved/rejected by
// the response (or its absence), or rejected while still queued when the
// connection closes or is shut down.
type PendingRequest struct {
	Frame  []byte
	Result *future.Future[[]byte]
}
