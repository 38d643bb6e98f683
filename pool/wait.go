package pool

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/paraproc/paraproc/human"
)

const pollInterval = 100 * time.Millisecond

// Batch is everything Wait collected for one batch: callable return
// values (nil for commands), exit codes and the full job records, each
// ordered by submission index.
type Batch struct {
	Values []any
	Codes  []int
	Jobs   []*Job
}

type waitOptions struct {
	size int
}

// WaitOption adjusts a single Wait invocation.
type WaitOption func(*waitOptions)

// WithSize temporarily overrides the pool size for this batch.
func WithSize(n int) WaitOption {
	return func(o *waitOptions) { o.size = n }
}

// Wait blocks until every queued and running job has finished, then
// returns the batch ordered by submission index. Job-level failures
// (non-zero exits, callable faults) never stop the batch; only
// infrastructural faults such as an unstartable command or a canceled
// context make Wait return early.
//
// Wait resets the per-batch bookkeeping: a following batch starts its
// indices at zero again, while History keeps every job.
func (p *Pool) Wait(ctx context.Context, opts ...WaitOption) (Batch, error) {
	var wo waitOptions
	for _, o := range opts {
		o(&wo)
	}
	if wo.size > 0 {
		old := p.size
		p.size = wo.size
		defer func() { p.size = old }()
	}

	start := time.Now()
	total := p.next
	// sized so that one push per job can never block a producer
	p.results = make(chan payload, len(p.queue)+p.size)
	collected := make([]payload, 0, len(p.queue))

	for len(p.running) > 0 || len(p.queue) > 0 {
		if err := p.dispatch(ctx); err != nil {
			return Batch{}, err
		}
		p.poll(ctx, &collected)
		select {
		case <-ctx.Done():
			return Batch{}, ctx.Err()
		case <-time.After(pollInterval):
		}
		p.drain(&collected)
	}
	// catch a push that raced the loop exit
	p.drain(&collected)

	slices.SortFunc(collected, func(a, b payload) int { return a.index - b.index })
	jobs := make([]*Job, 0, len(p.batch))
	for _, job := range p.batch {
		jobs = append(jobs, job)
	}
	slices.SortFunc(jobs, func(a, b *Job) int { return a.Index - b.Index })

	batch := Batch{Jobs: jobs}
	for _, res := range collected {
		batch.Values = append(batch.Values, res.value)
	}
	for _, job := range jobs {
		batch.Codes = append(batch.Codes, job.ExitCode)
	}

	if p.verbose > 0 {
		fmt.Fprintf(p.trace, ">> All %d jobs done in %s.\n",
			total, human.Duration(time.Since(start), human.Standard))
		if slices.ContainsFunc(batch.Codes, func(c int) bool { return c != 0 }) {
			fmt.Fprintf(p.trace, "returncodes: %v\n", batch.Codes)
		} else {
			fmt.Fprintln(p.trace, "all returncodes are 0.")
		}
		if p.AllSuccessful(jobs) {
			fmt.Fprintf(p.trace, ">> All %d jobs finished successfully.\n", len(jobs))
		} else {
			fmt.Fprintln(p.trace, ">> Please pay attention to the above errors.")
		}
	}

	// reset batch-scoped state, the history keeps every job
	p.next = 0
	p.batch = make(map[int]*Job)
	p.results = nil
	return batch, nil
}

// poll checks every running job for termination without blocking. A
// finished command first gets its watcher sped up and joined, so the
// remaining buffered output lands in the job before the pipe closes.
func (p *Pool) poll(ctx context.Context, collected *[]payload) {
	still := p.running[:0]
	for _, job := range p.running {
		select {
		case code := <-job.exited:
			job.StopTime = time.Now()
			job.ExitCode = code
			if job.Kind == KindCommand {
				close(job.speedUp)
				<-job.watcherDone
				_ = job.pipe.Close()
				job.cmd, job.pipe = nil, nil
				// placeholder mirroring callable results, so every job
				// yields exactly one Wait entry
				*collected = append(*collected, payload{index: job.Index})
			}
			if p.verbose > 0 {
				fmt.Fprintf(p.trace, ">> job#%d finished in %s.\n",
					job.Index, human.Duration(job.StopTime.Sub(job.StartTime), human.Standard))
			}
			slog.DebugContext(ctx, "job finished",
				"job", job.Index,
				"token", job.Token,
				"returncode", code,
			)
		default:
			still = append(still, job)
		}
	}
	p.running = still
}

// drain empties the results channel without blocking, merging callable
// return values and captured output into their jobs by index. Process
// ids are recycled by the OS, which is why the merge keys on the index.
func (p *Pool) drain(collected *[]payload) {
	for {
		select {
		case res := <-p.results:
			if job, ok := p.batch[res.index]; ok {
				job.Result = res.value
				if res.output != nil {
					job.Output = res.output
				}
			}
			*collected = append(*collected, res)
		default:
			return
		}
	}
}
