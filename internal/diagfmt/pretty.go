package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kairo/internal/diag"
	"kairo/internal/source"
)

const tabWidth = 4

// Pretty writes diagnostics in a human-readable form. Expects the bag to be
// sorted already. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a caret underline, then notes and fix
// suggestions in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := &prettyPrinter{w: w, fs: fs, opts: opts}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		p.printDiagnostic(d)
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
}

func (p *prettyPrinter) printDiagnostic(d diag.Diagnostic) {
	sev := p.paint(severityColor(d.Severity), d.Severity.String())
	code := p.paint(color.New(color.Bold), d.Code.ID())
	fmt.Fprintf(p.w, "%s: %s %s: %s\n", p.location(d.Primary), sev, code, d.Message)
	p.printSnippet(d.Primary, severityColor(d.Severity))

	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(p.w, "%s: %s: %s\n",
				p.location(n.Span), p.paint(color.New(color.FgCyan), "note"), n.Msg)
			p.printSnippet(n.Span, color.New(color.FgCyan))
		}
	}
	if p.opts.ShowFixes {
		for _, fix := range d.Fixes {
			fmt.Fprintf(p.w, "%s: %s\n", p.paint(color.New(color.FgGreen), "help"), fix.Title)
			for _, edit := range fix.Edits {
				p.printEditPreview(edit)
			}
		}
	}
}

func (p *prettyPrinter) location(span source.Span) string {
	f := p.fs.Get(span.File)
	start, _ := p.fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", displayPath(f, p.fs, p.opts.PathMode), start.Line, start.Col)
}

// printSnippet shows the span's first source line with a caret underline.
func (p *prettyPrinter) printSnippet(span source.Span, c *color.Color) {
	f := p.fs.Get(span.File)
	start, end := p.fs.Resolve(span)
	line := f.GetLine(start.Line)
	if line == "" && span.Empty() {
		return
	}

	gutter := fmt.Sprintf("%4d | ", start.Line)
	fmt.Fprintf(p.w, "%s%s\n", p.paint(color.New(color.Faint), gutter), expandTabs(line))

	// Caret offset counts display cells, so wide runes and tabs line up.
	prefixEnd := int(start.Col) - 1
	if prefixEnd > len(line) {
		prefixEnd = len(line)
	}
	pad := runewidth.StringWidth(expandTabs(line[:prefixEnd]))

	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		spanEnd := int(end.Col) - 1
		if spanEnd > len(line) {
			spanEnd = len(line)
		}
		width = runewidth.StringWidth(expandTabs(line[prefixEnd:spanEnd]))
		if width < 1 {
			width = 1
		}
	}
	caret := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(p.w, "%s%s%s\n",
		p.paint(color.New(color.Faint), "     | "),
		strings.Repeat(" ", pad),
		p.paint(c, caret))
}

// printEditPreview renders the line as it would look with the edit applied.
func (p *prettyPrinter) printEditPreview(edit diag.FixEdit) {
	f := p.fs.Get(edit.Span.File)
	start, _ := p.fs.Resolve(edit.Span)
	line := f.GetLine(start.Line)

	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	endCol := col + int(edit.Span.Len())
	if endCol > len(line) {
		endCol = len(line)
	}
	patched := line[:col] + edit.NewText + line[endCol:]
	fmt.Fprintf(p.w, "%s%s\n",
		p.paint(color.New(color.Faint), "     | "),
		expandTabs(patched))
}

func (p *prettyPrinter) paint(c *color.Color, s string) string {
	if !p.opts.Color {
		return s
	}
	return c.Sprint(s)
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan, color.Bold)
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
