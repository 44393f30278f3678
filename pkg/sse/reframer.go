package sse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

const defaultReadSize = 32 * 1024

var (
	// Delimiter terminates a frame: two consecutive newlines.
	Delimiter = []byte("\n\n")

	// trailer is always written after the final flush so the downstream
	// output ends with a newline.
	trailer = []byte("\n")
)

// Stats summarizes a completed relay.
type Stats struct {
	// Frames is the number of delimiter-terminated frames written.
	Frames int

	// Bytes is the number of upstream bytes delivered downstream, excluding
	// the trailing newline.
	Bytes int64
}

// Option configures a Reframer.
type Option func(*Reframer)

// WithPacer sets the pacing policy applied between frames.
// Defaults to a FixedPacer of DefaultFrameDelay.
func WithPacer(p Pacer) Option {
	return func(r *Reframer) {
		if p != nil {
			r.pacer = p
		}
	}
}

// WithFrameHook registers fn to observe every frame after it is written.
// The slice is only valid for the duration of the call.
func WithFrameHook(fn func(frame []byte)) Option {
	return func(r *Reframer) {
		r.onFrame = fn
	}
}

// WithReadSize sets the size of each upstream read.
func WithReadSize(n int) Option {
	return func(r *Reframer) {
		if n > 0 {
			r.readSize = n
		}
	}
}

// Reframer copies an SSE byte stream from an upstream reader to a downstream
// writer, only ever writing whole frames.
//
//	┌──────────────────┐   ┌──────────────────┐   ┌────────────────────────┐
//	│ source io.Reader │──▶│ reframing buffer │──▶│ dest io.WriteCloser    │
//	└──────────────────┘   └──────────────────┘   └────────────────────────┘
//	  arbitrary chunks       split on "\n\n"        whole frames, paced
//
// A Reframer holds no per-relay state and is safe to share between
// concurrent relays.
type Reframer struct {
	pacer    Pacer
	onFrame  func(frame []byte)
	readSize int
}

// NewReframer creates a Reframer with the given options.
func NewReframer(opts ...Option) *Reframer {
	r := &Reframer{
		pacer:    NewFixedPacer(DefaultFrameDelay),
		readSize: defaultReadSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// errorCloser is implemented by sinks such as *io.PipeWriter that can
// propagate a failure to their reader.
type errorCloser interface {
	CloseWithError(err error) error
}

// Relay reads src until EOF and writes every complete frame to dst, waiting
// on the pacer between successive frames. Once src is exhausted, any
// remaining partial frame is flushed, a single "\n" is written and dst is
// closed.
//
// dst is closed exactly once whether Relay succeeds or fails. When dst
// supports CloseWithError, failures are propagated through it.
func (r *Reframer) Relay(ctx context.Context, src io.Reader, dst io.WriteCloser) (stats Stats, err error) {
	defer func() {
		closeErr := closeSink(dst, err)
		if err == nil && closeErr != nil {
			err = fmt.Errorf("closing sink: %w", closeErr)
		}
	}()

	var buf []byte
	chunk := make([]byte, r.readSize)

	for {
		n, readErr := src.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			buf, err = r.drain(ctx, buf, dst, &stats)
			if err != nil {
				return stats, err
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return stats, fmt.Errorf("reading upstream: %w", readErr)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
	}

	if len(buf) > 0 {
		if _, err := dst.Write(buf); err != nil {
			return stats, fmt.Errorf("writing final fragment: %w", err)
		}
		stats.Bytes += int64(len(buf))
	}

	if _, err := dst.Write(trailer); err != nil {
		return stats, fmt.Errorf("writing trailer: %w", err)
	}

	return stats, nil
}

// drain writes every complete frame at the head of buf and returns the
// unconsumed remainder, compacted to the start of buf.
func (r *Reframer) drain(ctx context.Context, buf []byte, dst io.Writer, stats *Stats) ([]byte, error) {
	start := 0
	for {
		i := bytes.Index(buf[start:], Delimiter)
		if i < 0 {
			break
		}
		end := start + i + len(Delimiter)

		if stats.Frames > 0 {
			if err := r.pacer.Wait(ctx); err != nil {
				return buf, err
			}
		}

		frame := buf[start:end]
		if _, err := dst.Write(frame); err != nil {
			return buf, fmt.Errorf("writing frame: %w", err)
		}
		stats.Frames++
		stats.Bytes += int64(len(frame))

		if r.onFrame != nil {
			r.onFrame(frame)
		}

		start = end
	}

	if start == 0 {
		return buf, nil
	}

	rest := copy(buf, buf[start:])
	return buf[:rest], nil
}

func closeSink(dst io.WriteCloser, err error) error {
	if err != nil {
		if ec, ok := dst.(errorCloser); ok {
			return ec.CloseWithError(err)
		}
	}
	return dst.Close()
}
