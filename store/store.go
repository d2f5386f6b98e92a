// Package store puts document persistence behind one interface so the same
// calling code can run against the in-memory fake or a real Firestore
// project or emulator.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// DocumentInfo holds a document's fields and metadata.
type DocumentInfo struct {
	ID        string
	Path      string
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStore abstracts document persistence. Paths are slash separated
// and relative to the database root.
// Implementations: FakeStore, FirestoreStore.
type DocumentStore interface {
	Create(ctx context.Context, path string, data map[string]any) error
	Get(ctx context.Context, path string) (*DocumentInfo, error)
	List(ctx context.Context, collectionPath string) ([]DocumentInfo, error)
	Set(ctx context.Context, path string, data map[string]any, merge bool) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
}

// mapError turns the gRPC status codes both backends use into the package's
// sentinel errors.
func mapError(path string, err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return notFound(path)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	return err
}

func notFound(path string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}

func invalidPath(path string) error {
	return fmt.Errorf("invalid document path %q", path)
}

func docID(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

func sortByID(docs []DocumentInfo) {
	slices.SortFunc(docs, func(a, b DocumentInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
}
