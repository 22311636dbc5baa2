package errors

// Error codes for the frogcheck verifier
// These codes are used in diagnostics printed by the CLI and published by the
// language server.
//
// Error code ranges:
// E0001-E0099: Semantic analysis errors
// E0100-E0199: Parser errors
// E0200-E0299: Analysis errors (fatal, the class cannot be verified)
// E0400-E0499: Property violations reported at sell-sites
// W0001-W0099: Warnings

const (
	// E0001: Variable resolution errors
	ErrorUndefinedVariable = "E0001"

	// E0002: Method resolution errors
	ErrorUndefinedMethod = "E0002"

	// E0003: Type compatibility errors
	ErrorTypeMismatch = "E0003"

	// E0004: Unknown type name in a declaration
	ErrorUnknownType = "E0004"

	// E0009: Duplicate declaration errors
	ErrorDuplicateDeclaration = "E0009"

	// E0013: Call argument errors
	ErrorInvalidArguments = "E0013"

	// E0018: Integer literal out of range
	ErrorNumericOverflow = "E0018"

	// E0023: Allocation of something other than Frog, or a non-constant cost
	ErrorInvalidAllocation = "E0023"

	// E0024: Method signature outside the supported fragment
	ErrorInvalidSignature = "E0024"

	// E0025: Use of a local before it is assigned
	ErrorUninitializedVariable = "E0025"

	// Parser errors (reserved range: E0100-E0199)

	// E0100: Syntax error
	ErrorSyntax = "E0100"

	// Analysis errors (reserved range: E0200-E0299)

	// E0200: Construct outside the supported fragment
	ErrorUnsupportedConstruct = "E0200"

	// E0201: Abstract domain failure during the fixpoint
	ErrorDomainFailure = "E0201"

	// E0202: A sell receiver without allocation sites
	ErrorInconsistentPointsTo = "E0202"

	// Property violations (reserved range: E0400-E0499)

	// E0401: sell argument may be negative
	ErrorNegativePrice = "E0401"

	// E0402: sell argument may be below the production cost
	ErrorItemLoss = "E0402"

	// E0403: method may end with a negative overall profit
	ErrorOverallLoss = "E0403"

	// Warning codes

	// W0001: Unreachable sell-site
	WarningUnreachableSell = "W0001"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUndefinedVariable:
		return "Variable is used but not declared in the current method"
	case ErrorUndefinedMethod:
		return "Method does not exist on the receiver"
	case ErrorTypeMismatch:
		return "Expression type does not match expected type"
	case ErrorUnknownType:
		return "Type name is not int, double or Frog"
	case ErrorDuplicateDeclaration:
		return "Duplicate declaration found"
	case ErrorInvalidArguments:
		return "Call has invalid arguments"
	case ErrorNumericOverflow:
		return "Integer literal does not fit in an int"
	case ErrorInvalidAllocation:
		return "Only Frog objects with a constant production cost can be allocated"
	case ErrorInvalidSignature:
		return "Method signature is not supported"
	case ErrorUninitializedVariable:
		return "Variable is read before it is assigned"
	case ErrorSyntax:
		return "Source does not match the grammar"
	case ErrorUnsupportedConstruct:
		return "Statement or expression outside the analyzable fragment"
	case ErrorDomainFailure:
		return "Numerical abstract domain failed"
	case ErrorInconsistentPointsTo:
		return "Receiver does not point to any Frog allocation"
	case ErrorNegativePrice:
		return "sell may be called with a negative price"
	case ErrorItemLoss:
		return "sell may be called with a price below the production cost"
	case ErrorOverallLoss:
		return "Method may lose money overall"
	case WarningUnreachableSell:
		return "sell call is unreachable"
	default:
		return "Unknown error code"
	}
}

// IsWarning returns true if the error code represents a warning rather than an error
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case IsWarning(code):
		return "Warning"
	case code >= "E0001" && code < "E0100":
		return "Semantic Analysis"
	case code >= "E0100" && code < "E0200":
		return "Parser"
	case code >= "E0200" && code < "E0300":
		return "Analysis"
	case code >= "E0400" && code < "E0500":
		return "Verification"
	default:
		return "Unknown"
	}
}
