package pool

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// reverseVideo is the ANSI escape some external tools put in front of
// warning and error lines.
const reverseVideo = "\x1b[7m"

const watcherIdle = 100 * time.Millisecond

// watch drains the job's combined output pipe line by line. It is the
// only writer of job.Output while the job runs. Lines starting with an
// attention marker are echoed to the error stream regardless of the
// verbosity, so urgent diagnostics are never lost.
//
// Between lines the watcher idles briefly to avoid busy-polling a slow
// external program. Once the coordinator detects process termination it
// closes speedUp and the watcher drains the remaining buffered output
// without the idle delay.
func (p *Pool) watch(job *Job, r io.Reader) {
	defer close(job.watcherDone)

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			job.Output = append(job.Output, line)
			if strings.HasPrefix(line, "*") || strings.HasPrefix(line, reverseVideo) {
				fmt.Fprintf(p.errout, ">> Something happens in job#%d\n", job.Index)
				fmt.Fprint(p.errout, line)
			} else if p.verbose > 1 {
				fmt.Fprint(p.trace, line)
			}
		}
		if err != nil { // EOF or a broken pipe both end the stream
			return
		}
		select {
		case <-job.speedUp:
		case <-time.After(watcherIdle):
		}
	}
}
