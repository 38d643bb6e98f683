// Package pool runs queued external commands and in-process callables
// across a bounded set of workers, capturing their combined output, exit
// codes and timing, and answering whether everything succeeded.
//
// Jobs are submitted in batches with Run and RunFunc and waited on as a
// batch with Wait. Jobs are independent: there is no dependency graph,
// no retry and no per-job timeout. Polling is deliberately coarse since
// workloads are expected to run orders of magnitude longer than the poll
// interval.
package pool

import (
	"errors"
	"io"
	"os"
	"regexp"
	"runtime"
	"slices"

	"github.com/paraproc/paraproc/cmdline"
)

// DefaultErrorPattern flags suspicious lines in captured output: the
// word "error" in any case, or two consecutive asterisks, a convention
// some command line tools use to mark failures in plain text.
var DefaultErrorPattern = regexp.MustCompile(`(?i)error|\*{2}`)

// ErrEmptyCommand is returned when a submitted command normalizes to an
// empty argument vector.
var ErrEmptyCommand = errors.New("empty command")

// Config carries the pool's explicit configuration. Verbosity and output
// streams are configured here and handed down to every watcher and
// executor, there is no process-wide mutable default.
type Config struct {
	// Size limits how many jobs run concurrently. Zero means three
	// quarters of the available CPUs (at least one).
	Size int
	// Verbose controls trace output: 0 silent, 1 job lifecycle lines,
	// 2 also echo captured output as it arrives.
	Verbose int
	// Trace receives lifecycle lines and echoed output, default os.Stdout.
	Trace io.Writer
	// Errout receives severe diagnostics regardless of Verbose, default
	// os.Stderr.
	Errout io.Writer
	// ErrorPattern overrides DefaultErrorPattern for AllSuccessful.
	ErrorPattern *regexp.Regexp
}

// Pool schedules jobs over a fixed number of slots. A Pool is not safe
// for concurrent use: one goroutine submits and waits, the pool's own
// watchers and executors run concurrently underneath it.
type Pool struct {
	size    int
	verbose int
	trace   io.Writer
	errout  io.Writer
	pattern *regexp.Regexp

	queue   []*pending
	running []*Job
	next    int          // submission counter, reset after each Wait
	batch   map[int]*Job // index to job, valid for the current batch
	history []*Job       // every job ever dispatched, kept across batches

	results chan payload // created per batch by Wait
}

// payload travels from a finished worker back to the coordinator.
// Commands contribute a placeholder with a nil value so Wait returns
// exactly one entry per job regardless of kind.
type payload struct {
	index  int
	value  any
	output []string // callable capture, nil for command placeholders
}

func New(cfg Config) *Pool {
	size := cfg.Size
	if size <= 0 {
		size = max(1, runtime.NumCPU()*3/4)
	}
	trace := cfg.Trace
	if trace == nil {
		trace = os.Stdout
	}
	errout := cfg.Errout
	if errout == nil {
		errout = os.Stderr
	}
	pattern := cfg.ErrorPattern
	if pattern == nil {
		pattern = DefaultErrorPattern
	}
	return &Pool{
		size:    size,
		verbose: cfg.Verbose,
		trace:   trace,
		errout:  errout,
		pattern: pattern,
		batch:   make(map[int]*Job),
	}
}

// Size returns the pool's concurrency limit.
func (p *Pool) Size() int {
	return p.size
}

type runOptions struct {
	env []string
	dir string
}

// RunOption passes process creation options through to the command's
// exec.Cmd.
type RunOption func(*runOptions)

// WithEnv sets the command's environment.
func WithEnv(env []string) RunOption {
	return func(o *runOptions) { o.env = env }
}

// WithDir sets the command's working directory.
func WithDir(dir string) RunOption {
	return func(o *runOptions) { o.dir = dir }
}

// Run enqueues one external command and returns immediately. Results are
// retrieved later through Wait.
func (p *Pool) Run(cmd cmdline.Command, opts ...RunOption) {
	var ro runOptions
	for _, o := range opts {
		o(&ro)
	}
	p.queue = append(p.queue, &pending{index: p.next, kind: KindCommand, cmd: cmd, opts: ro})
	p.next++
}

// RunFunc enqueues one in-process callable and returns immediately.
// Arguments are carried by the closure.
func (p *Pool) RunFunc(fn Callable) {
	p.queue = append(p.queue, &pending{index: p.next, kind: KindCallable, fn: fn})
	p.next++
}

// History returns every job dispatched over the pool's lifetime, across
// batches. The history grows unbounded by design; callers needing
// bounded memory should snapshot and ClearHistory between batches.
func (p *Pool) History() []*Job {
	return slices.Clone(p.history)
}

// ClearHistory drops the accumulated job history.
func (p *Pool) ClearHistory() {
	p.history = nil
}
