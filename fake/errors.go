package fake

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PathError reports a malformed path or one whose segment count does not
// match the kind of reference requested.
type PathError struct {
	Path   string
	Want   string // "collection" or "document"
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid %s path %q: %s", e.Want, e.Path, e.Reason)
}

func (e *PathError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// InvalidFilterError reports a where clause the database would reject.
type InvalidFilterError struct {
	Field  string
	Op     string
	Value  any
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %s %s %v: %s", e.Field, e.Op, e.Value, e.Reason)
}

func (e *InvalidFilterError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

func notFound(path string) error {
	return status.Errorf(codes.NotFound, "no document to update: %s", path)
}

func alreadyExists(path string) error {
	return status.Errorf(codes.AlreadyExists, "document already exists: %s", path)
}
