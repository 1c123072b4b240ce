// SPDX-License-Identifier: MIT
/*
Package audio captures live input through PortAudio and hands fixed
size mono blocks to the dispatch loop.

The PortAudio callback is the hot path: it copies samples into a
pre-allocated buffer and offers it over a capacity-1 channel. When the
consumer is behind, the stale block is dropped and replaced, so the
loop always analyzes the freshest audio. Nothing in the callback
allocates, blocks, or takes a lock.
*/
package audio

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"dronebeat/internal/config"
)

// freeBuffers bounds the number of block buffers in flight: one in the
// hand-off slot, one held by the consumer, spares for churn.
const freeBuffers = 4

// Engine captures mono int32 blocks from a PortAudio input stream and
// implements Source.
type Engine struct {
	config *config.Config

	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// slot is the capacity-1 hand-off to the dispatch loop; free is
	// the pre-allocated buffer pool feeding the callback.
	slot chan []int32
	free chan []int32

	dropped atomic.Uint64
}

var _ Source = (*Engine)(nil)

// NewEngine resolves the configured input device and pre-allocates all
// capture buffers. It does not open the stream; call Open for that.
func NewEngine(config *config.Config) (*Engine, error) {
	inputDevice, err := InputDevice(config.Audio.DeviceID)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:      config,
		inputDevice: inputDevice,
		slot:        make(chan []int32, 1),
		free:        make(chan []int32, freeBuffers),
	}
	for range freeBuffers {
		e.free <- make([]int32, config.Audio.FramesPerBuffer)
	}

	if config.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return e, nil
}

// Open starts the input stream with capture as the PortAudio callback.
func (e *Engine) Open() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.capture)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return err
	}

	return nil
}

// capture is the PortAudio callback. Performance critical: only
// pre-allocated buffers, no locks, no blocking sends.
func (e *Engine) capture(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var block []int32
	select {
	case block = <-e.free:
	default:
		// Consumer holds every buffer; drop this callback.
		e.dropped.Add(1)
		return
	}

	frames := e.config.Audio.FramesPerBuffer
	if e.config.Audio.Channels == 1 {
		copy(block, in)
	} else {
		// Interleaved input: keep channel 0.
		channels := e.config.Audio.Channels
		for i := range frames {
			if i*channels < len(in) {
				block[i] = in[i*channels]
			} else {
				block[i] = 0
			}
		}
	}

	select {
	case e.slot <- block:
	default:
		// Slot full: replace the stale block with this one.
		select {
		case stale := <-e.slot:
			e.recycle(stale)
			e.dropped.Add(1)
		default:
		}
		select {
		case e.slot <- block:
		default:
			e.recycle(block)
		}
	}
}

// ReadBlock implements Source.
func (e *Engine) ReadBlock(ctx context.Context, timeout time.Duration) ([]int32, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case block := <-e.slot:
		return block, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Recycle implements Source.
func (e *Engine) Recycle(block []int32) {
	e.recycle(block)
}

func (e *Engine) recycle(block []int32) {
	select {
	case e.free <- block:
	default:
	}
}

// Dropped reports how many blocks were discarded because the dispatch
// loop was behind. A steadily climbing count under normal load means
// the block size or move pacing needs tuning.
func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

// Close stops and releases the input stream. Safe to call when the
// stream never opened.
func (e *Engine) Close() error {
	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	return nil
}
