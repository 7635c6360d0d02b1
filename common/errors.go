package common

import (
	"errors"
	"strings"
)

var ErrMissingIdentifier = errors.New("missing identifier")
var ErrObjectNotFound = errors.New("object not found")
var ErrResolutionFailed = errors.New("resolution failed")
var ErrMetadataNotFound = errors.New("system metadata not found")
var ErrObsolescenceCycle = errors.New("obsolescence chain contains a cycle")
var ErrPackageNotFound = errors.New("package not found")
var ErrWrongFormat = errors.New("object is not a resource map")
var ErrInvalidMetadataFormat = errors.New("not an allowable science metadata format")
var ErrMissingFormat = errors.New("object format could not be determined")
var ErrIncompletePackage = errors.New("package is incomplete")
var ErrCannotSerialize = errors.New("cannot serialize package")
var ErrUnsupportedSerialization = errors.New("unsupported serialization")
var ErrUnsupportedAlgorithm = errors.New("unsupported checksum algorithm")
var ErrPublishFailed = errors.New("publish failed")
var ErrMemberNotFound = errors.New("member not in package")

// OperationError attaches the identifier and node involved in a failure to
// one of the error kinds above. errors.Is matches both the kind and the cause.
type OperationError struct {
	Kind error
	Pid  string
	Node string
	Err  error
}

func (e *OperationError) Error() string {
	sb := strings.Builder{}
	sb.WriteString(e.Kind.Error())
	if e.Pid != "" {
		sb.WriteString(" pid=" + e.Pid)
	}
	if e.Node != "" {
		sb.WriteString(" node=" + e.Node)
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *OperationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewOperationError(kind error, pid string, node string, cause error) error {
	return &OperationError{Kind: kind, Pid: pid, Node: node, Err: cause}
}
