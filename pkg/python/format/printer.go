package format

import (
	"strings"
)

// IndentString is one level of dump indentation.
const IndentString = "  "

// Printer manages indentation state and output
type Printer struct {
	output  strings.Builder
	indent  int
	linePos int // position in the current line
}

// NewPrinter creates a new Printer instance
func NewPrinter() *Printer {
	return &Printer{}
}

// String returns the formatted output
func (p *Printer) String() string {
	return p.output.String()
}

// Reset clears the printer state for reuse
func (p *Printer) Reset() {
	p.output.Reset()
	p.indent = 0
	p.linePos = 0
}

func (p *Printer) write(s string) {
	if p.linePos == 0 && s != "" {
		p.output.WriteString(strings.Repeat(IndentString, p.indent))
		p.linePos = p.indent * len(IndentString)
	}
	p.output.WriteString(s)
	p.linePos += len(s)
}

func (p *Printer) writeln(s string) {
	p.write(s)
	p.newline()
}

func (p *Printer) newline() {
	p.output.WriteString("\n")
	p.linePos = 0
}

func (p *Printer) indentInc() {
	p.indent++
}

func (p *Printer) indentDec() {
	if p.indent > 0 {
		p.indent--
	}
}
