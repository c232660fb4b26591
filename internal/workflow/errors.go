package workflow

import "fmt"

// MissingParamError reports a required parameter absent from a request.
// It is returned before any process is spawned.
type MissingParamError struct {
	Param string
	Op    string
}

func (e MissingParamError) Error() string {
	return fmt.Sprintf("%s parameter is required for %s", e.Param, e.Op)
}

// UnknownOperationError reports an operation name outside the
// dispatcher's closed set.
type UnknownOperationError struct {
	Op string
}

func (e UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %q", e.Op)
}
