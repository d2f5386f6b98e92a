package fake

import (
	"cloud.google.com/go/firestore"

	"github.com/alimasry/firestore-fake/value"
)

// DocumentSnapshot is the state of a document at ReadTime. Ref is set even
// when the document does not exist.
type DocumentSnapshot struct {
	Ref        *DocumentRef
	CreateTime value.Timestamp
	UpdateTime value.Timestamp
	ReadTime   value.Timestamp
	Metadata   SnapshotMetadata

	exists bool
	data   map[string]any
}

// SnapshotMetadata always reports a settled, server-confirmed read.
type SnapshotMetadata struct {
	HasPendingWrites bool
	FromCache        bool
}

func newDocumentSnapshot(ref *DocumentRef, rec *Record, readTime value.Timestamp) *DocumentSnapshot {
	snap := &DocumentSnapshot{Ref: ref, ReadTime: readTime}
	if !rec.exists() {
		return snap
	}
	snap.exists = true
	snap.CreateTime = rec.CreateTime
	snap.UpdateTime = rec.UpdateTime
	snap.data = value.CloneMap(rec.Fields)
	if snap.data == nil {
		snap.data = make(map[string]any)
	}
	if ref.store.opts.IncludeIDsInData {
		snap.data[seedIDKey] = rec.ID
	}
	return snap
}

func (s *DocumentSnapshot) ID() string { return s.Ref.ID }

func (s *DocumentSnapshot) Exists() bool { return s.exists }

// Data returns a copy of the document fields, or nil when the document does
// not exist.
func (s *DocumentSnapshot) Data() map[string]any {
	if !s.exists {
		return nil
	}
	return value.CloneMap(s.data)
}

// Get returns the value at a dotted field path, or nil when it is absent.
func (s *DocumentSnapshot) Get(path string) any {
	if path == firestore.DocumentID {
		return s.Ref.ID
	}
	v, ok := value.Lookup(s.data, path)
	if !ok {
		return nil
	}
	return value.Clone(v)
}

// DataTo decodes the document into dst, a pointer to a struct or map.
func (s *DocumentSnapshot) DataTo(dst any) error {
	if !s.exists {
		return notFound(s.Ref.Path)
	}
	return value.DataTo(s.data, dst)
}

// Converted returns the document through the reference's converter, or Data
// when there is none.
func (s *DocumentSnapshot) Converted() (any, error) {
	if s.Ref.conv == nil {
		return s.Data(), nil
	}
	if !s.exists {
		return nil, nil
	}
	return s.Ref.conv.FromFirestore(s)
}

// QuerySnapshot holds the results of one query run, in result order.
type QuerySnapshot struct {
	Docs     []*DocumentSnapshot
	ReadTime value.Timestamp
	Query    *Query
}

func (s *QuerySnapshot) Size() int { return len(s.Docs) }

func (s *QuerySnapshot) Empty() bool { return len(s.Docs) == 0 }

// ForEach calls fn for every document in order.
func (s *QuerySnapshot) ForEach(fn func(*DocumentSnapshot)) {
	for _, d := range s.Docs {
		fn(d)
	}
}

// DocumentChange describes one document of a query snapshot relative to the
// previous snapshot. Every snapshot here is a first delivery, so each
// document is reported as added.
type DocumentChange struct {
	Kind     firestore.DocumentChangeKind
	Doc      *DocumentSnapshot
	OldIndex int
	NewIndex int
}

func (s *QuerySnapshot) DocChanges() []DocumentChange {
	out := make([]DocumentChange, len(s.Docs))
	for i, d := range s.Docs {
		out[i] = DocumentChange{Kind: firestore.DocumentAdded, Doc: d, OldIndex: -1, NewIndex: i}
	}
	return out
}
