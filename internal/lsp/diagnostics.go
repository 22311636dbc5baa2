package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"frogcheck/internal/check"
	"frogcheck/internal/errors"
)

const diagnosticSource = "frogcheck"

// ConvertDiagnostics transforms the errors, violations and unreachable
// sell-sites of a run into LSP diagnostics. Errors stop the editor's build;
// violations are warnings at the sell-site and unreachable sites are faded
// hints.
func ConvertDiagnostics(r *check.Result) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, d := range r.AllDiagnostics() {
		diagnostics = append(diagnostics, convert(d))
	}
	return diagnostics
}

func convert(d errors.CompilerError) protocol.Diagnostic {
	length := d.Length
	if length <= 0 {
		length = 1
	}
	line := uint32(max(d.Position.Line-1, 0)) // Convert to 0-based indexing
	start := uint32(max(d.Position.Column-1, 0))

	diagnostic := protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: start},
			End:   protocol.Position{Line: line, Character: start + uint32(length)},
		},
		Severity: ptrSeverity(severity(d)),
		Code:     &protocol.IntegerOrString{Value: d.Code},
		Source:   ptrString(diagnosticSource),
		Message:  d.Message,
	}
	if d.Code == errors.WarningUnreachableSell {
		diagnostic.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagUnnecessary}
	}
	for _, note := range d.Notes {
		diagnostic.Message += "\nnote: " + note
	}
	return diagnostic
}

func severity(d errors.CompilerError) protocol.DiagnosticSeverity {
	switch {
	case d.Code == errors.WarningUnreachableSell:
		return protocol.DiagnosticSeverityHint
	case d.Level == errors.Warning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityError
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
