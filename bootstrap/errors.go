package bootstrap

import "errors"

// ErrWrongAccount is returned by ServeBulkBlocks when the requested
// start and end hashes belong to different accounts (spec §4.5: "if
// start_hash is not owned by the account identified by end_hash, the
// server refuses").
var ErrWrongAccount = errors.New("bootstrap: start_hash and end_hash belong to different accounts")

// ErrQueueFull is returned by Queue.TryEnqueue, the non-blocking
// enqueue, when the outstanding request count is already at its cap.
var ErrQueueFull = errors.New("bootstrap: outstanding request queue is full")

// ErrChecksumMismatch is returned by SyncDivergence when a
// peer's reported region digest disagrees with the local recomputed
// one after a bulk-block sync — spec.md §8 scenario 5's convergence
// assertion ("B.checksum = A.checksum") failing.
var ErrChecksumMismatch = errors.New("bootstrap: checksum region mismatch after convergence")
