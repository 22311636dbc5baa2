// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"frogcheck/internal/check"
	"frogcheck/internal/config"
	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
	"frogcheck/internal/verify"
)

const (
	PROMPT       = ">> "
	CONTINUATION = ".. "
)

const help = `Type a class, then an empty line or :check to verify it.
  :check   verify the lines typed so far
  :ir      toggle printing of the lowered program
  :clear   drop the lines typed so far
  :quit    leave
`

// Start reads class declarations from in and writes the verdicts to out
// until in is exhausted or :quit is typed
func Start(in io.Reader, out io.Writer, cfg *config.Config) error {
	if cfg == nil {
		cfg = config.Default()
	}
	scanner := bufio.NewScanner(in)
	var buf strings.Builder
	printIR := false

	fmt.Fprint(out, help)
	for {
		if buf.Len() == 0 {
			fmt.Fprint(out, PROMPT)
		} else {
			fmt.Fprint(out, CONTINUATION)
		}
		if !scanner.Scan() {
			if buf.Len() > 0 {
				evaluate(out, buf.String(), cfg, printIR)
			}
			return scanner.Err()
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case ":quit", ":q":
			return nil
		case ":clear":
			buf.Reset()
		case ":ir":
			printIR = !printIR
			fmt.Fprintf(out, "printing IR: %t\n", printIR)
		case ":help":
			fmt.Fprint(out, help)
		case ":check", "":
			if buf.Len() > 0 {
				evaluate(out, buf.String(), cfg, printIR)
				buf.Reset()
			}
		default:
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
}

func evaluate(out io.Writer, source string, cfg *config.Config, printIR bool) {
	r := check.Source("<repl>", source, cfg.Properties, cfg)
	if len(r.Diagnostics) > 0 {
		fmt.Fprint(out, errors.NewErrorReporter(r.Name, source).FormatAll(r.Diagnostics))
	}
	if printIR {
		for _, program := range r.Programs {
			fmt.Fprintln(out, ir.PrintProgram(program))
		}
	}

	safe := color.New(color.FgGreen).SprintFunc()
	unsafe := color.New(color.FgRed).SprintFunc()
	for _, report := range r.Reports {
		for _, p := range report.Properties {
			if report.Verdict(p) == verify.Safe {
				fmt.Fprintf(out, "%s: %s %s\n", report.Class, p, safe(verify.Safe))
				continue
			}
			fmt.Fprintf(out, "%s: %s %s\n", report.Class, p, unsafe(verify.Unsafe))
			for _, v := range report.ViolationsOf(p) {
				fmt.Fprintf(out, "    %s\n", v)
			}
		}
	}
}
