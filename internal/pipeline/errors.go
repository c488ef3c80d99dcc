package pipeline

import "fmt"

// FailureKind categorizes everything that can go wrong with one row.
type FailureKind int

const (
	FailureParse FailureKind = iota
	FailureNetworkTransient
	FailureNetworkPermanent
	FailureValidation
	FailureCrop
	FailureIO
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	switch k {
	case FailureParse:
		return "PARSE"
	case FailureNetworkTransient:
		return "NETWORK_TRANSIENT"
	case FailureNetworkPermanent:
		return "NETWORK_PERMANENT"
	case FailureValidation:
		return "VALIDATION"
	case FailureCrop:
		return "CROP"
	case FailureIO:
		return "IO"
	default:
		return "UNKNOWN"
	}
}

// RowFailure is one row's terminal (or partial) failure, carrying exactly
// what the failure log needs.
type RowFailure struct {
	Line    int
	URL     string
	Kind    FailureKind
	Message string
}

// LogLine renders the failure in the fixed log format:
// "Line <n>: <error message>: <url>".
func (f RowFailure) LogLine() string {
	return fmt.Sprintf("Line %d: %s: %s", f.Line, f.Message, f.URL)
}
