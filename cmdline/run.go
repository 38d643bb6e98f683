package cmdline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/paraproc/paraproc/human"
)

// ErrNonZeroExit marks a command which ran but exited with a non-zero
// returncode while checking was enabled.
var ErrNonZeroExit = errors.New("command exited with non-zero returncode")

// Result describes one finished command invocation.
type Result struct {
	Cmd       string
	PID       int
	Output    []string // combined stdout and stderr, line by line
	StartTime time.Time
	StopTime  time.Time
	ExitCode  int
}

type runConfig struct {
	check   bool
	verbose int
	trace   io.Writer
}

// RunOption adjusts a single Run invocation.
type RunOption func(*runConfig)

// WithoutCheck disables converting a non-zero exit into an error.
func WithoutCheck() RunOption {
	return func(c *runConfig) { c.check = false }
}

// WithVerbose sets the verbosity: 0 silent, 1 command and duration,
// 2 also echo the captured output.
func WithVerbose(v int) RunOption {
	return func(c *runConfig) { c.verbose = v }
}

// WithTrace redirects trace output away from os.Stdout.
func WithTrace(w io.Writer) RunOption {
	return func(c *runConfig) { c.trace = w }
}

// Run executes one command line synchronously, capturing combined stdout
// and stderr line by line. By default a non-zero exit is converted into
// an error naming the failing command; see WithoutCheck.
func Run(ctx context.Context, cmd Command, opts ...RunOption) (Result, error) {
	cfg := runConfig{check: true, verbose: 2, trace: os.Stdout}
	for _, o := range opts {
		o(&cfg)
	}

	argv, err := cmd.ExecForm()
	if err != nil {
		return Result{}, err
	}
	if len(argv) == 0 {
		return Result{}, errors.New("empty command")
	}

	res := Result{Cmd: cmd.Display(), StartTime: time.Now()}
	if cfg.verbose > 0 {
		fmt.Fprintf(cfg.trace, ">> %s\n", res.Cmd)
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	pr, pw, err := os.Pipe()
	if err != nil {
		return Result{}, fmt.Errorf("creating output pipe: %w", err)
	}
	c.Stdout = pw // stderr shares the pipe so lines keep their real order
	c.Stderr = pw
	if err := c.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return Result{}, fmt.Errorf("starting %s: %w", res.Cmd, err)
	}
	_ = pw.Close() // the child owns the write end now
	res.PID = c.Process.Pid

	br := bufio.NewReader(pr)
	for {
		line, rerr := br.ReadString('\n')
		if line != "" {
			res.Output = append(res.Output, line)
			if cfg.verbose > 1 {
				fmt.Fprint(cfg.trace, line)
			}
		}
		if rerr != nil { // EOF or a broken pipe both end the stream
			break
		}
	}
	_ = pr.Close()

	werr := c.Wait()
	res.StopTime = time.Now()
	res.ExitCode = c.ProcessState.ExitCode()
	if cfg.verbose > 0 {
		fmt.Fprintf(cfg.trace, ">> Command finished in %s.\n",
			human.Duration(res.StopTime.Sub(res.StartTime), human.Standard))
	}
	if werr != nil && res.ExitCode < 0 {
		return res, fmt.Errorf("waiting on %s: %w", res.Cmd, werr)
	}
	if cfg.check && res.ExitCode != 0 {
		return res, fmt.Errorf("command failed (returncode=%d): %s: %w",
			res.ExitCode, res.Cmd, ErrNonZeroExit)
	}
	return res, nil
}
