package errors

import "fmt"

// AnalysisError aborts verification of a class. The CLI reports the class as
// UNSAFE for every requested property when one is returned.
type AnalysisError struct {
	Code     string
	Task     string // "pointer", "numerical", "verify"
	Method   string
	Message  string
	Position Position
}

func (e *AnalysisError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s: %s: %s", e.Task, e.Method, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Task, e.Message)
}

// Diagnostic converts the error to a reportable compiler error.
func (e *AnalysisError) Diagnostic() CompilerError {
	b := NewSemanticError(e.Code, e.Message, e.Position)
	if e.Method != "" {
		b = b.WithNote(fmt.Sprintf("while analyzing method '%s'", e.Method))
	}
	return b.WithHelp(GetErrorDescription(e.Code)).Build()
}

// Unsupported reports a construct the analysis does not model.
func Unsupported(task, method string, pos Position, format string, args ...any) *AnalysisError {
	return &AnalysisError{
		Code:     ErrorUnsupportedConstruct,
		Task:     task,
		Method:   method,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	}
}

// DomainFailure reports an abstract domain call that failed.
func DomainFailure(method string, pos Position, cause error) *AnalysisError {
	return &AnalysisError{
		Code:     ErrorDomainFailure,
		Task:     "numerical",
		Method:   method,
		Message:  cause.Error(),
		Position: pos,
	}
}

// InconsistentPointsTo reports a sell receiver with an empty points-to set.
func InconsistentPointsTo(method, local string, pos Position) *AnalysisError {
	return &AnalysisError{
		Code:     ErrorInconsistentPointsTo,
		Task:     "numerical",
		Method:   method,
		Message:  fmt.Sprintf("receiver '%s' does not point to any Frog allocation", local),
		Position: pos,
	}
}
