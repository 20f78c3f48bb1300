package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress is an mpb bar over one archive or one batch of archives. The
// label stays fixed and the description follows the item being worked on.
type Progress struct {
	container   *mpb.Progress
	bar         *mpb.Bar
	label       string
	description string
}

const descLength = 28

// NewProgress creates a bar counting to total. It stays silent unless
// enabled is set and stderr is a terminal.
func NewProgress(label string, total int, enabled bool) *Progress {
	p := &Progress{label: label}
	if !enabled || !isTerminal() {
		return p
	}

	fmt.Fprintln(os.Stderr)

	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			decor.Any(func(decor.Statistics) string {
				return shorten(p.description, descLength)
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.CountersNoUnit("  %d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	return p
}

// Update moves the bar to current and shows description next to the label
func (p *Progress) Update(current int, description string) {
	if p.bar == nil {
		return
	}
	p.description = description
	p.bar.SetCurrent(int64(current))
}

// Finish stops the bar and waits for its last render
func (p *Progress) Finish() {
	if p.container == nil {
		return
	}

	// a bar that stopped short would block Wait forever
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.container.Wait()
	p.container, p.bar = nil, nil

	fmt.Fprintln(os.Stderr)
}

// shorten keeps the end of s, where the file name of a path is
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return ".." + string(r[len(r)-(n-2):])
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
