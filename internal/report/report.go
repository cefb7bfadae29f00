// Package report renders harness output as plain text lines.
package report

import (
	"fmt"
	"io"
	"iter"

	"github.com/hamed0406/bengreen/internal/domain"
	"github.com/hamed0406/bengreen/internal/stopwatch"
)

const DefaultLabel = "BenGreen"

type Reporter struct {
	Label string
	Out   io.Writer
}

func New(label string, out io.Writer) *Reporter {
	if label == "" {
		label = DefaultLabel
	}
	return &Reporter{Label: label, Out: out}
}

// List prints one "<label>: <name>" line per name.
func (r *Reporter) List(names iter.Seq[string]) {
	for name := range names {
		fmt.Fprintf(r.Out, "%s: %s\n", r.Label, name)
	}
}

func (r *Reporter) Result(name string, o domain.Outcome) {
	if o.OK() {
		fmt.Fprintf(r.Out, "%s: %s: passed: %d ns\n", r.Label, name, stopwatch.Nanoseconds(o.Duration))
		return
	}
	fmt.Fprintf(r.Out, "%s: %s: failed: %s\n", r.Label, name, o.Message)
}

func (r *Reporter) NotFound(name string) {
	fmt.Fprintf(r.Out, "%s: %s: not found\n", r.Label, name)
}
