// Package report renders result trees for people and exports them for tools.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ShayCichocki/dgot/pkg/models"
)

// DefaultTruncate is the default maximum rune length of rendered text fields.
const DefaultTruncate = 100

type options struct {
	truncate int
	color    bool
}

// Option configures rendering.
type Option func(*options)

// WithTruncate sets the maximum rune length of problem and solution text.
// Values below 1 disable truncation.
func WithTruncate(n int) Option {
	return func(o *options) { o.truncate = n }
}

// WithColor enables ANSI colouring of the status tags.
func WithColor(enabled bool) Option {
	return func(o *options) { o.color = enabled }
}

func buildOptions(opts []Option) options {
	o := options{truncate: DefaultTruncate}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Render writes the indented text form of node to w.
func Render(w io.Writer, node *models.ResultNode, opts ...Option) error {
	if _, err := io.WriteString(w, String(node, opts...)+"\n"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// String returns the indented text form of node. Lines are joined with "\n"
// and there is no trailing newline.
func String(node *models.ResultNode, opts ...Option) string {
	o := buildOptions(opts)
	r := renderer{opts: o, tags: newTags(o.color)}

	var lines []string
	r.node(&lines, node, 0)
	return strings.Join(lines, "\n")
}

// Tally counts the direct children of node whose solution does not carry the
// error marker. Atomic nodes report 0/0.
func Tally(node *models.ResultNode) (ok, total int) {
	if node == nil {
		return 0, 0
	}
	for _, child := range node.Children {
		if !models.IsFailure(child.Solution) {
			ok++
		}
	}
	return ok, len(node.Children)
}

type tags struct {
	atomic, ok, failed string
}

func newTags(enabled bool) tags {
	if !enabled {
		return tags{atomic: "[ATOMIC]", ok: "[OK]", failed: "[FAILED]"}
	}
	paint := func(attr color.Attribute, s string) string {
		c := color.New(attr, color.Bold)
		c.EnableColor()
		return c.Sprint(s)
	}
	return tags{
		atomic: paint(color.FgCyan, "[ATOMIC]"),
		ok:     paint(color.FgGreen, "[OK]"),
		failed: paint(color.FgRed, "[FAILED]"),
	}
}

type renderer struct {
	opts options
	tags tags
}

func (r renderer) node(lines *[]string, n *models.ResultNode, indent int) {
	if n == nil {
		return
	}
	pad := strings.Repeat("  ", indent)

	if n.Atomic {
		*lines = append(*lines,
			fmt.Sprintf("%s%s %s", pad, r.tags.atomic, r.cut(n.Problem)),
			fmt.Sprintf("%sSolution: %s", pad, r.cut(n.Solution)))
		return
	}

	*lines = append(*lines,
		fmt.Sprintf("%sProblem: %s", pad, r.cut(n.Problem)),
		fmt.Sprintf("%sFinal solution: %s", pad, r.cut(n.Solution)))
	if len(n.Children) == 0 {
		return
	}

	ok, total := Tally(n)
	*lines = append(*lines, fmt.Sprintf("%sSubproblems (%d/%d successful):", pad, ok, total))
	for i, child := range n.Children {
		status := r.tags.ok
		if models.IsFailure(child.Solution) {
			status = r.tags.failed
		}
		*lines = append(*lines, fmt.Sprintf("%s  #%d %s:", pad, i+1, status))
		r.node(lines, child, indent+2)
	}
}

func (r renderer) cut(s string) string {
	if r.opts.truncate < 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= r.opts.truncate {
		return s
	}
	return string(runes[:r.opts.truncate]) + "..."
}
