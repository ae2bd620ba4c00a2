package upload

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
)

// Progress renders a single-line byte progress indicator. Safe for
// concurrent Update calls from uploader goroutines.
type Progress struct {
	Out io.Writer

	mu sync.Mutex
}

func (p *Progress) Update(done, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	percent := int64(100)
	if total > 0 {
		percent = done * 100 / total
	}
	fmt.Fprintf(p.Out, "\r%3d%% %s / %s", percent,
		humanize.IBytes(uint64(done)), humanize.IBytes(uint64(total)))
}

func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.Out)
}
