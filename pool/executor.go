package pool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// teeBuffer collects everything written to it and optionally mirrors
// each write to a second stream. It is owned by a single executor
// goroutine, so writes need no locking.
type teeBuffer struct {
	buf    bytes.Buffer
	mirror io.Writer
}

func (t *teeBuffer) Write(b []byte) (int, error) {
	n, err := t.buf.Write(b)
	if t.mirror != nil {
		_, _ = t.mirror.Write(b)
	}
	return n, err
}

// startCallable runs fn in its own goroutine with an explicit pair of
// output sinks. The error sink is always mirrored to the pool's error
// stream, the normal sink only when verbose enough. Captured output and
// the return value are delivered in bulk through the results channel
// when the callable exits, on every exit path including a panic.
func (p *Pool) startCallable(ctx context.Context, job *Job, fn Callable) error {
	job.exited = make(chan int, 1)

	out := &teeBuffer{}
	if p.verbose > 1 {
		out.mirror = p.trace
	}
	errw := &teeBuffer{mirror: p.errout}

	results := p.results
	go func() {
		var value any
		code := 0
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(errw, ">> Error occurs in job#%d\n", job.Index)
				fmt.Fprintf(errw, "** ERROR: %v\n", r)
				value = nil
				code = 1
			}
			output := append(splitLines(out.buf.String()), splitLines(errw.buf.String())...)
			results <- payload{index: job.Index, value: value, output: output}
			job.exited <- code
		}()

		v, err := fn(ctx, out, errw)
		if err != nil {
			fmt.Fprintf(errw, ">> Error occurs in job#%d\n", job.Index)
			fmt.Fprintf(errw, "** ERROR: %v\n", err)
			code = 1
			return
		}
		value = v
	}()
	return nil
}

// splitLines splits s keeping the line terminators, matching the line
// form of command output capture.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
