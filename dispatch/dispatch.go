// Copyright 2024 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dispatch implements the chunked parallel dispatcher (spec §4.1):
// it partitions an input iterator into fixed-size chunks, fans them out
// across a bounded worker pool, and hands results back to the caller in
// input order through a pull-based, backpressured sequence.
package dispatch

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dolthub/gitpack/packlog"
)

// NextFunc pulls the next input item. ok=false, err=nil signals a clean
// end of input.
type NextFunc[I any] func() (item I, ok bool, err error)

// InitWorker builds the mutable, worker-owned state handed to every call
// of PerChunk on one worker (spec §4.1's per_worker_init). It is called
// exactly once per worker at pool startup.
type InitWorker[S any] func() (S, error)

// PerChunk converts one chunk of input items into a chunk of output items,
// using this worker's state. Errors here short-circuit the whole stream.
type PerChunk[I, S, O any] func(ctx context.Context, chunk []I, state S) ([]O, error)

// Options configures a Run call; see spec §6.4 for the chunk_size/
// thread_limit semantics.
type Options struct {
	// ChunkSize is the number of input items per unit of work. Zero means
	// the spec default of 10.
	ChunkSize int
	// ThreadLimit bounds the worker pool. Zero or negative means "use all
	// logical cores" (spec §6.4's thread_limit: None).
	ThreadLimit int
	// InputSizeHint is a known lower bound on the number of input items,
	// when the caller has one cheaply available. It is used only to
	// shrink ChunkSize when there isn't enough input to keep ThreadLimit
	// workers busy at the requested chunk size (spec §4.1). Zero disables
	// the adjustment.
	InputSizeHint int
	// Logger receives structured progress/error logging; nil is fine.
	Logger packlog.Logger
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 10
	}
	if o.ThreadLimit <= 0 {
		o.ThreadLimit = runtime.NumCPU()
	}
	o.ChunkSize = optimizeChunkSize(o.ChunkSize, o.ThreadLimit, o.InputSizeHint)
	return o
}

// optimizeChunkSize shrinks chunkSize when the known input size can't keep
// threadLimit workers fed at the requested size -- e.g. 3 items and a
// chunk size of 10 would dispatch everything to a single worker even with
// threadLimit=8 workers available. It never grows chunkSize beyond what
// the caller asked for.
func optimizeChunkSize(chunkSize, threadLimit, lowerBound int) int {
	if lowerBound <= 0 || threadLimit <= 0 {
		return chunkSize
	}
	perWorker := lowerBound / threadLimit
	if perWorker > 0 && perWorker < chunkSize {
		return perWorker
	}
	return chunkSize
}

type job[I any] struct {
	idx   int
	items []I
}

type result[O any] struct {
	idx   int
	items []O
	err   error
}

// ResultSeq is the lazy, order-preserving output of Run. Callers pull
// items one at a time with Next; the dispatcher blocks upstream workers
// via a bounded channel whenever the caller isn't pulling (spec §5
// backpressure).
type ResultSeq[O any] struct {
	resCh   <-chan result[O]
	cancel  context.CancelFunc
	pending map[int][]O
	nextIdx int
	buf     []O
	err     error
	ended   bool
}

// Next returns the next output item in input order. ok=false with err=nil
// means the stream ended cleanly. Once an error is returned, every
// subsequent call returns ok=false, err=nil (spec §4.1 failure contract:
// the error surfaces exactly once, then the stream ends).
func (r *ResultSeq[O]) Next(ctx context.Context) (item O, ok bool, err error) {
	var zero O
	if r.ended {
		return zero, false, nil
	}
	if r.err != nil {
		e := r.err
		r.err = nil
		r.ended = true
		return zero, false, e
	}
	for len(r.buf) == 0 {
		if err := r.fill(ctx); err != nil {
			r.err = nil
			r.ended = true
			return zero, false, err
		}
		if r.buf == nil && r.ended {
			return zero, false, nil
		}
	}
	item = r.buf[0]
	r.buf = r.buf[1:]
	return item, true, nil
}

// Close releases the dispatcher's goroutines if the caller will not drain
// the sequence to completion.
func (r *ResultSeq[O]) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// fill pulls chunk results from resCh until the next-in-order chunk is
// available, buffering out-of-order arrivals in pending.
func (r *ResultSeq[O]) fill(ctx context.Context) error {
	if items, ok := r.pending[r.nextIdx]; ok {
		delete(r.pending, r.nextIdx)
		r.nextIdx++
		r.buf = items
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res, open := <-r.resCh:
		if !open {
			r.ended = true
			r.buf = nil
			return nil
		}
		if res.err != nil {
			return res.err
		}
		if res.idx == r.nextIdx {
			r.nextIdx++
			r.buf = res.items
			return nil
		}
		r.pending[res.idx] = res.items
		return nil
	}
}

// Run partitions next into chunks of up to chunkSize items, dispatches
// them across up to threadLimit workers, and returns a ResultSeq yielding
// the reduced (here: identity) results in input order.
func Run[I, S, O any](ctx context.Context, next NextFunc[I], opts Options, initWorker InitWorker[S], perChunk PerChunk[I, S, O]) *ResultSeq[O] {
	opts = opts.withDefaults()

	runCtx, cancel := context.WithCancel(ctx)
	jobCh := make(chan job[I], opts.ThreadLimit)
	resCh := make(chan result[O], opts.ThreadLimit)

	eg, egCtx := errgroup.WithContext(runCtx)

	eg.Go(func() error {
		defer close(jobCh)
		idx := 0
		for {
			chunk, err := readChunk(next, opts.ChunkSize)
			if err != nil {
				return fmt.Errorf("dispatch: reading input: %w", err)
			}
			if len(chunk) == 0 {
				return nil
			}
			select {
			case jobCh <- job[I]{idx: idx, items: chunk}:
			case <-egCtx.Done():
				return egCtx.Err()
			}
			idx++
		}
	})

	for w := 0; w < opts.ThreadLimit; w++ {
		workerNum := w
		eg.Go(func() error {
			state, err := initWorker()
			if err != nil {
				return fmt.Errorf("dispatch: initializing worker %d: %w", workerNum, err)
			}
			for j := range jobCh {
				out, err := perChunk(egCtx, j.items, state)
				if err != nil {
					opts.Logger.Dispatch().WithError(err).WithField("chunk_tag", xxhash.Sum64(chunkTagBytes(j.idx))).Error("chunk processing failed")
					return fmt.Errorf("dispatch: chunk %d: %w", j.idx, err)
				}
				select {
				case resCh <- result[O]{idx: j.idx, items: out}:
				case <-egCtx.Done():
					return egCtx.Err()
				}
			}
			return nil
		})
	}

	seq := &ResultSeq[O]{
		resCh:   resCh,
		cancel:  cancel,
		pending: map[int][]O{},
	}

	// eg.Wait only returns once the producer and every worker goroutine
	// has returned, so no one can still be sending on resCh by the time
	// we close it here -- it is safe to close from this single goroutine.
	go func() {
		err := eg.Wait()
		if err != nil && runCtx.Err() == nil {
			resCh <- result[O]{err: err}
		}
		close(resCh)
	}()

	return seq
}

func readChunk[I any](next NextFunc[I], size int) ([]I, error) {
	chunk := make([]I, 0, size)
	for len(chunk) < size {
		item, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		chunk = append(chunk, item)
	}
	return chunk, nil
}

func chunkTagBytes(idx int) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(idx >> (8 * i))
	}
	return b
}
