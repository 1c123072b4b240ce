// SPDX-License-Identifier: MIT
package analysis

// BlockProcessor is the interface for components fed audio blocks by
// the dispatch loop. Implementations should be efficient; they run
// once per captured block.
type BlockProcessor interface {
	Process(block []int32)
}

// ClosableProcessor combines BlockProcessor with a Close method for
// resource cleanup.
type ClosableProcessor interface {
	BlockProcessor
	Close() error
}
