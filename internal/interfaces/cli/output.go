package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	appintegration "github.com/boodo/silvasync/internal/application/integration"
	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// ErrRunFailed is returned by a command whose run attempted items and synced
// none of them.
var ErrRunFailed = errors.New("sync run failed")

// printer writes the terminal output of a command
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

func (p *printer) line(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

// progress is an appintegration.ProgressFunc
func (p *printer) progress(item string, outcome appintegration.Outcome, err error) {
	switch outcome {
	case appintegration.OutcomeSuccess:
		p.line("  ✓ %s", item)
	case appintegration.OutcomeSkipped:
		if err != nil {
			p.line("  - %s (skipped: %v)", item, err)
			return
		}
		p.line("  - %s (skipped)", item)
	case appintegration.OutcomeFailed:
		p.line("  ✗ %s: %v", item, err)
	}
}

func (p *printer) summary(title string, r *integration.SyncResult) {
	p.line("%s finished: %s", title, r.Status)
	p.line("  total %d, synced %d, skipped %d, failed %d",
		r.TotalCount, r.SuccessCount, r.SkippedCount, r.FailedCount)
}

func (p *printer) merged(result map[string]shop.Customer) {
	if len(result) == 0 {
		p.line("No guest accounts merged")
		return
	}
	emails := make([]string, 0, len(result))
	for email := range result {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		p.line("Merged guest %s into customer %s", email, result[email].CustomerNumber)
	}
}

// runError turns a FAILED run into ErrRunFailed. Runs where every item was
// skipped succeed.
func runError(r *integration.SyncResult) error {
	if r == nil || r.Status != integration.SyncStatusFailed {
		return nil
	}
	if r.SuccessCount+r.FailedCount == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d items failed", ErrRunFailed, r.FailedCount, r.TotalCount)
}
