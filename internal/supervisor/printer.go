package supervisor

import (
	"fmt"
	"io"
)

// Printer renders operator-facing progress lines. These are separate from
// the structured log.
type Printer interface {
	Step(msg string)
	Success(msg string)
	Warn(msg string)
	Error(msg string)
	Prompt(msg string)
}

// PlainPrinter writes unstyled lines to W.
type PlainPrinter struct {
	W io.Writer
}

func (p PlainPrinter) Step(msg string)    { fmt.Fprintln(p.W, msg) }
func (p PlainPrinter) Success(msg string) { fmt.Fprintln(p.W, "OK: "+msg) }
func (p PlainPrinter) Warn(msg string)    { fmt.Fprintln(p.W, "WARNING: "+msg) }
func (p PlainPrinter) Error(msg string)   { fmt.Fprintln(p.W, "ERROR: "+msg) }
func (p PlainPrinter) Prompt(msg string)  { fmt.Fprint(p.W, msg) }
