package audio

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout reports that no block arrived within the read timeout.
// The dispatch loop treats it as silence and keeps polling; it is not
// a capture failure.
var ErrTimeout = errors.New("audio: read timed out")

// Source is a blocking-read view over an audio capture stream. Blocks
// are mono int32 samples of a fixed size. The returned slice is owned
// by the caller until it hands it back with Recycle; the source never
// retains or mutates an outstanding block.
type Source interface {
	// Open starts capture. ReadBlock may be called once Open returns.
	Open() error

	// ReadBlock waits for the next block, up to timeout. It returns
	// ErrTimeout when no audio arrived in time and the context error
	// when ctx ends first. Stale blocks are dropped at the source, so
	// a slow caller always sees the freshest block, never a backlog.
	ReadBlock(ctx context.Context, timeout time.Duration) ([]int32, error)

	// Recycle returns a block obtained from ReadBlock for reuse.
	Recycle(block []int32)

	// Close stops capture and releases the stream.
	Close() error
}
