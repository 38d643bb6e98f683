package pool

import (
	"context"
	"io"
	"os"
	"os/exec"
	"reflect"
	"runtime"
	"time"

	"github.com/paraproc/paraproc/cmdline"
)

// Kind tags what a Job runs: an external command or an in-process
// callable.
type Kind int

const (
	KindCommand Kind = iota
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindCallable:
		return "callable"
	}
	return "unknown"
}

// Callable is an in-process unit of work. Anything it wants recorded in
// the job's captured output must be written to out or errw; errw is
// always mirrored to the pool's error stream. The returned value is
// delivered to the caller of Wait.
type Callable func(ctx context.Context, out, errw io.Writer) (any, error)

// Job tracks one submitted unit of work through queued, running and
// finished. Every field has exactly one writer: the pool writes the
// lifecycle fields, the job's own watcher or executor produces Output.
// Process ids are reused by the OS, so Index is the only stable sort key.
type Job struct {
	Index     int
	Kind      Kind
	Display   string
	Token     string // short random id disambiguating concurrent log lines
	PID       int
	Output    []string // combined stdout and stderr, line by line
	StartTime time.Time
	StopTime  time.Time // zero until the job finished
	ExitCode  int
	Result    any // callable return value, always nil for commands

	// handles below are valid only while the job is running
	cmd         *exec.Cmd
	pipe        *os.File      // read end of the combined output pipe
	speedUp     chan struct{} // closed once the process exited
	watcherDone chan struct{}
	exited      chan int // carries the exit status, one send
}

// pending is a submitted but not yet dispatched unit of work. The Job
// record is materialized at dispatch time, not at submission time, so
// recorded start times reflect the actual launch.
type pending struct {
	index int
	kind  Kind
	cmd   cmdline.Command
	fn    Callable
	opts  runOptions
}

func funcName(fn Callable) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return "callable"
}
