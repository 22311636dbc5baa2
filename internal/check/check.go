// Package check runs the whole pipeline on one source file: parsing, the
// semantic checks, lowering and verification of every class.
package check

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"frogcheck/grammar"
	"frogcheck/internal/config"
	"frogcheck/internal/errors"
	"frogcheck/internal/ir"
	"frogcheck/internal/parser"
	"frogcheck/internal/property"
	"frogcheck/internal/semantic"
	"frogcheck/internal/verify"
)

var log = commonlog.GetLogger("frogcheck.check")

// Exit statuses of a run
const (
	StatusSafe   = 0
	StatusFailed = 1
	StatusUnsafe = 2
)

// Result is everything known about one file after a run. Diagnostics holds
// the parse and semantic errors and the fatal analysis errors; violations
// stay in the reports.
type Result struct {
	Name        string
	Source      string
	File        *grammar.File
	Diagnostics []errors.CompilerError
	Programs    []*ir.Program
	Reports     []*verify.Report
}

// Source checks the text of one file for props
func Source(name, source string, props []property.Property, cfg *config.Config) *Result {
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Result{Name: name, Source: source}

	file, parseErrors := parser.ParseSource(name, source)
	for _, pe := range parseErrors {
		r.Diagnostics = append(r.Diagnostics, errors.SyntaxError(pe.Message, pe.Position))
	}
	if file == nil {
		return r
	}
	r.File = file

	r.Diagnostics = append(r.Diagnostics, semantic.NewAnalyzer().AnalyzeFile(file)...)
	if r.Failed() {
		return r
	}

	for _, class := range file.Classes {
		program, err := ir.BuildProgram(class)
		if err != nil {
			r.Diagnostics = append(r.Diagnostics, diagnostic(err, class.Pos))
			r.Reports = append(r.Reports, unsafeReport(class.Name, props))
			continue
		}
		r.Programs = append(r.Programs, program)

		log.Infof("verifying %s in %s", program.Class, name)
		report, err := verify.VerifyClass(program, props, cfg)
		if err != nil {
			log.Errorf("%s: %s", program.Class, err)
			r.Diagnostics = append(r.Diagnostics, diagnostic(err, class.Pos))
			report = unsafeReport(program.Class, props)
		}
		r.Reports = append(r.Reports, report)
	}
	return r
}

// File reads and checks path
func File(path string, props []property.Property, cfg *config.Config) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Source(path, string(source), props, cfg), nil
}

// Failed reports whether any diagnostic is an error
func (r *Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if d.Level != errors.Warning {
			return true
		}
	}
	return false
}

// Status is StatusFailed on any error, StatusUnsafe when a property may be
// violated and StatusSafe otherwise
func (r *Result) Status() int {
	if r.Failed() {
		return StatusFailed
	}
	for _, report := range r.Reports {
		if !report.Safe() {
			return StatusUnsafe
		}
	}
	return StatusSafe
}

// AllDiagnostics lists the errors followed by the violations and hints of
// every report
func (r *Result) AllDiagnostics() []errors.CompilerError {
	out := append([]errors.CompilerError{}, r.Diagnostics...)
	for _, report := range r.Reports {
		out = append(out, report.Diagnostics()...)
	}
	return out
}

// a class that cannot be analyzed is unsafe for every property
func unsafeReport(class string, props []property.Property) *verify.Report {
	report := &verify.Report{
		Class:      class,
		Properties: props,
		Verdicts:   make(map[property.Property]verify.Verdict, len(props)),
	}
	for _, p := range props {
		report.Verdicts[p] = verify.Unsafe
	}
	return report
}

func diagnostic(err error, pos errors.Position) errors.CompilerError {
	var analysisErr *errors.AnalysisError
	if stderrors.As(err, &analysisErr) {
		return analysisErr.Diagnostic()
	}
	return errors.NewSemanticError(errors.ErrorUnsupportedConstruct, err.Error(), pos).
		WithHelp(errors.GetErrorDescription(errors.ErrorUnsupportedConstruct)).
		Build()
}
