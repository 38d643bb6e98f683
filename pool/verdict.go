package pool

import "fmt"

// AllSuccessful reports whether every job exited zero and no captured
// output line matches the pool's error pattern. A nil jobs slice checks
// the full history; an empty set is successful.
//
// The pattern match is a best-effort content check layered on top of the
// authoritative exit codes, it can misfire on programs that merely talk
// about errors. When verbose, every offending line is printed prefixed
// with its job index.
func (p *Pool) AllSuccessful(jobs []*Job) bool {
	if jobs == nil {
		jobs = p.history
	}

	ok := true
	for _, job := range jobs {
		if job.ExitCode != 0 {
			ok = false
		}
	}
	for _, job := range jobs {
		for _, line := range job.Output {
			if p.pattern.MatchString(line) {
				if p.verbose > 0 {
					fmt.Fprintf(p.trace, "[job#%d] %s", job.Index, line)
				}
				ok = false
			}
		}
	}
	return ok
}
