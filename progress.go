package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// progress redraws a single status line while out is a terminal and stays
// silent otherwise, so piped output only holds results.
type progress struct {
	out      io.Writer
	label    string
	total    int
	width    int
	lastDraw int
	enabled  bool
}

func newProgress(out io.Writer, label string, total int) *progress {
	p := &progress{out: out, label: label, total: total}
	file, ok := out.(*os.File)
	if !ok || total == 0 || !term.IsTerminal(int(file.Fd())) {
		return p
	}
	p.enabled = true
	p.width = 40
	if columns, _, err := term.GetSize(int(file.Fd())); err == nil && columns > len(label)+20 {
		p.width = min(columns-len(label)-20, 60)
	}
	return p
}

func (p *progress) step(done int) {
	if !p.enabled {
		return
	}
	// redraw roughly every percent
	if done != p.total && done-p.lastDraw < p.total/100+1 {
		return
	}
	p.lastDraw = done
	filled := done * p.width / p.total
	fmt.Fprintf(p.out, "\r%s [%s%s] %d/%d", p.label, strings.Repeat("#", filled), strings.Repeat(".", p.width-filled), done, p.total)
}

func (p *progress) done() {
	if p.enabled {
		fmt.Fprintln(p.out)
	}
}
