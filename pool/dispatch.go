package pool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// dispatch moves queued jobs into free slots, launching each as a child
// process or an executor goroutine. It never blocks: output capture and
// exit detection run off the coordinating goroutine. A job which cannot
// be started at all surfaces its error here and is not retried.
func (p *Pool) dispatch(ctx context.Context) error {
	for len(p.running) < p.size && len(p.queue) > 0 {
		pend := p.queue[0]
		p.queue = p.queue[1:]

		job := &Job{
			Index: pend.index,
			Kind:  pend.kind,
			Token: uuid.NewString()[:6],
		}
		if pend.kind == KindCallable {
			job.Display = funcName(pend.fn)
		} else {
			job.Display = pend.cmd.Display()
		}
		if p.verbose > 0 {
			fmt.Fprintf(p.trace, ">> job#%d: %s\n", job.Index, job.Display)
		}

		var err error
		switch pend.kind {
		case KindCallable:
			err = p.startCallable(ctx, job, pend.fn)
		default:
			err = p.startCommand(ctx, job, pend)
		}
		if err != nil {
			return err
		}

		job.StartTime = time.Now()
		p.running = append(p.running, job)
		p.batch[job.Index] = job
		p.history = append(p.history, job)
		slog.DebugContext(ctx, "job started",
			"job", job.Index,
			"kind", job.Kind.String(),
			"token", job.Token,
			"pid", job.PID,
		)
	}
	return nil
}

func (p *Pool) startCommand(ctx context.Context, job *Job, pend *pending) error {
	argv, err := pend.cmd.ExecForm()
	if err != nil {
		return fmt.Errorf("job#%d: %w", job.Index, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("job#%d: %w", job.Index, ErrEmptyCommand)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if pend.opts.env != nil {
		cmd.Env = pend.opts.env
	}
	if pend.opts.dir != "" {
		cmd.Dir = pend.opts.dir
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("creating output pipe: %w", err)
	}
	cmd.Stdout = pw // stderr shares the pipe so output keeps its real order
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return fmt.Errorf("starting job#%d (%s): %w", job.Index, job.Display, err)
	}
	_ = pw.Close() // the child owns the write end now

	job.cmd = cmd
	job.pipe = pr
	job.PID = cmd.Process.Pid
	job.speedUp = make(chan struct{})
	job.watcherDone = make(chan struct{})
	job.exited = make(chan int, 1)

	go p.watch(job, pr)
	go func() {
		_ = cmd.Wait()
		job.exited <- cmd.ProcessState.ExitCode()
	}()
	return nil
}
