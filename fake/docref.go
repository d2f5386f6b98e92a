package fake

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/golang/glog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/alimasry/firestore-fake/docpath"
	"github.com/alimasry/firestore-fake/value"
)

// ClientDocumentRef is the document surface of the client product.
type ClientDocumentRef interface {
	Get(ctx context.Context) (*DocumentSnapshot, error)
	Set(ctx context.Context, data any, opts ...SetOption) (*WriteResult, error)
	Update(ctx context.Context, data any) (*WriteResult, error)
	Create(ctx context.Context, data any) (*WriteResult, error)
	Delete(ctx context.Context) (*WriteResult, error)
	Collection(id string) *CollectionRef
	OnSnapshot(cb func(*DocumentSnapshot, error)) func()
}

// AdminDocumentRef adds the server-only operations of the admin product.
type AdminDocumentRef interface {
	ClientDocumentRef
	ListCollections(ctx context.Context) ([]*CollectionRef, error)
}

var (
	_ ClientDocumentRef = (*DocumentRef)(nil)
	_ AdminDocumentRef  = adminDocumentRef{}
)

// WriteResult is returned by every successful write.
type WriteResult struct {
	UpdateTime value.Timestamp
}

// SetOption modifies Set.
type SetOption struct {
	merge bool
}

// MergeAll makes Set merge top-level fields into the existing document
// instead of replacing it.
var MergeAll = SetOption{merge: true}

// DocumentRef addresses a document, whether or not it exists.
type DocumentRef struct {
	ID     string
	Path   string
	Parent *CollectionRef

	segs  docpath.Path
	store *Firestore
	conv  Converter
}

func (d *DocumentRef) refPath() docpath.Path { return d.segs }

// IsEqual reports whether both references address the same document of the
// same store.
func (d *DocumentRef) IsEqual(other *DocumentRef) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.store == other.store && d.segs.Equal(other.segs)
}

// Admin returns the admin surface of d. ok is false for client stores.
func (d *DocumentRef) Admin() (AdminDocumentRef, bool) {
	if d.store.opts.Kind != KindAdmin {
		return nil, false
	}
	return adminDocumentRef{d}, true
}

// Collection returns a subcollection of d. id may be a relative path with an
// odd number of segments.
func (d *DocumentRef) Collection(id string) *CollectionRef {
	d.store.record(OpCollection, id)
	rel, err := parsePath(id, "collection")
	if err != nil {
		glog.Warningf("firestore fake: %s: %v", d.Path, err)
		return nil
	}
	c := d.store.collectionRef(d.segs.Child(rel...))
	c.conv, c.Query.conv = d.conv, d.conv
	return c
}

// WithConverter returns a copy of d that reads and writes through c.
func (d *DocumentRef) WithConverter(c Converter) *DocumentRef {
	d.store.record(OpWithConverter, d.Path)
	cp := *d
	cp.conv = c
	return &cp
}

// Get reads the document. A missing document is not an error.
func (d *DocumentRef) Get(ctx context.Context) (*DocumentSnapshot, error) {
	out := d.store.recordOutcome(OpGet, d.Path)
	if out.Err != nil {
		return nil, out.Err
	}
	if snap, ok := out.Value.(*DocumentSnapshot); ok {
		return snap, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.read(), nil
}

func (d *DocumentRef) read() *DocumentSnapshot {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	return newDocumentSnapshot(d, d.store.node(d.segs), d.store.now())
}

// Set writes data as the whole document, or merges its top-level fields when
// called with MergeAll. data is a map, a struct, or anything the reference's
// converter accepts.
func (d *DocumentRef) Set(ctx context.Context, data any, opts ...SetOption) (*WriteResult, error) {
	merge := false
	for _, o := range opts {
		merge = merge || o.merge
	}
	if err := d.store.record(OpSet, d.Path, data, merge); err != nil {
		return nil, err
	}
	if merge {
		return d.write(ctx, writeMerge, data)
	}
	return d.write(ctx, writeSet, data)
}

// Update changes the named fields of an existing document. Keys of a map are
// dotted field paths; []firestore.Update is accepted as well. Updating a
// missing document fails with codes.NotFound.
func (d *DocumentRef) Update(ctx context.Context, data any) (*WriteResult, error) {
	if err := d.store.record(OpUpdate, d.Path, data); err != nil {
		return nil, err
	}
	return d.write(ctx, writeUpdate, data)
}

// Create writes data only if the document does not exist yet; otherwise it
// fails with codes.AlreadyExists.
func (d *DocumentRef) Create(ctx context.Context, data any) (*WriteResult, error) {
	if err := d.store.record(OpCreate, d.Path, data); err != nil {
		return nil, err
	}
	return d.write(ctx, writeCreate, data)
}

// Delete removes the document. Subcollections are kept. Deleting a missing
// document succeeds.
func (d *DocumentRef) Delete(ctx context.Context) (*WriteResult, error) {
	if err := d.store.record(OpDelete, d.Path); err != nil {
		return nil, err
	}
	return d.remove(ctx)
}

func (d *DocumentRef) remove(ctx context.Context) (*WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := d.store.now()
	if !d.store.opts.Mutable {
		return &WriteResult{UpdateTime: now}, nil
	}
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.remove(d.segs, false)
	return &WriteResult{UpdateTime: now}, nil
}

type writeKind int

const (
	writeSet writeKind = iota
	writeMerge
	writeUpdate
	writeCreate
)

func (d *DocumentRef) write(ctx context.Context, kind writeKind, data any) (*WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fields, err := d.inputFields(kind, data)
	if err != nil {
		return nil, err
	}
	now := d.store.now()
	if !d.store.opts.Mutable {
		return &WriteResult{UpdateTime: now}, nil
	}

	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	rec := d.store.node(d.segs)
	exists := rec.exists()
	switch {
	case kind == writeCreate && exists:
		return nil, alreadyExists(d.Path)
	case kind == writeUpdate && !exists:
		return nil, notFound(d.Path)
	}
	var old map[string]any
	if exists {
		old = rec.Fields
	}

	var next map[string]any
	switch kind {
	case writeSet, writeCreate:
		next = make(map[string]any, len(fields))
		for k, v := range fields {
			ov, ok := old[k]
			if r, keep := resolve(v, ov, ok, now); keep {
				next[k] = r
			}
		}
	case writeMerge:
		next = value.CloneMap(old)
		if next == nil {
			next = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			ov, ok := old[k]
			if r, keep := resolve(v, ov, ok, now); keep {
				next[k] = r
			} else {
				delete(next, k)
			}
		}
	case writeUpdate:
		next = value.CloneMap(old)
		for k, v := range fields {
			ov, ok := value.Lookup(old, k)
			if r, keep := resolve(v, ov, ok, now); keep {
				value.SetPath(next, k, r)
			} else {
				value.DeletePath(next, k)
			}
		}
	}

	if rec == nil {
		rec = d.store.ensure(d.segs)
	}
	if !exists {
		rec.CreateTime = now
	}
	rec.Missing = false
	rec.Fields = next
	rec.UpdateTime = now
	return &WriteResult{UpdateTime: now}, nil
}

// inputFields converts write input into canonical fields. Updates bypass the
// converter, as with the real client.
func (d *DocumentRef) inputFields(kind writeKind, data any) (map[string]any, error) {
	if kind == writeUpdate {
		if ups, ok := data.([]firestore.Update); ok {
			return updateFields(ups)
		}
		return toFields(data)
	}
	if d.conv != nil {
		fields, err := d.conv.ToFirestore(data)
		if err != nil {
			return nil, err
		}
		return value.NormalizeMap(fields)
	}
	return toFields(data)
}

func toFields(data any) (map[string]any, error) {
	if m, ok := data.(map[string]any); ok {
		return value.NormalizeMap(m)
	}
	v, err := value.Normalize(data)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "document data must be a map or struct, got %T", data)
	}
	return m, nil
}

func updateFields(ups []firestore.Update) (map[string]any, error) {
	out := make(map[string]any, len(ups))
	for _, u := range ups {
		path := u.Path
		if path == "" {
			path = strings.Join(u.FieldPath, ".")
		}
		if path == "" {
			return nil, status.Errorf(codes.InvalidArgument, "update needs a field path")
		}
		v, err := value.Normalize(u.Value)
		if err != nil {
			return nil, err
		}
		out[path] = v
	}
	return out, nil
}

// resolve applies the sentinels in v against the stored value old. keep is
// false when the field must be removed.
func resolve(v, old any, exists bool, now value.Timestamp) (any, bool) {
	switch x := v.(type) {
	case *value.FieldValue:
		return x.Resolve(old, exists, now)
	case map[string]any:
		oldMap, _ := old.(map[string]any)
		out := make(map[string]any, len(x))
		for k, e := range x {
			ov, ok := oldMap[k]
			if r, keep := resolve(e, ov, ok, now); keep {
				out[k] = r
			}
		}
		return out, true
	}
	return value.Clone(v), true
}

// OnSnapshot schedules one delivery of the document's state to cb. Delivery
// happens on the next Flush of the store, reading state at that time. The
// returned function cancels a delivery that has not run yet.
func (d *DocumentRef) OnSnapshot(cb func(*DocumentSnapshot, error)) func() {
	return d.OnSnapshotWithOptions(SnapshotOptions{}, cb)
}

// SnapshotOptions is accepted for signature compatibility; metadata changes
// are never delivered separately.
type SnapshotOptions struct {
	IncludeMetadataChanges bool
}

func (d *DocumentRef) OnSnapshotWithOptions(opts SnapshotOptions, cb func(*DocumentSnapshot, error)) func() {
	err := d.store.record(OpOnSnapshot, d.Path, opts)
	cancel := d.store.schedule(func() {
		if err != nil {
			cb(nil, err)
			return
		}
		cb(d.read(), nil)
	})
	return func() {
		d.store.record(OpUnsubscribe, d.Path)
		cancel()
	}
}

type adminDocumentRef struct {
	*DocumentRef
}

// ListCollections returns the subcollections directly under the document,
// sorted by name.
func (a adminDocumentRef) ListCollections(ctx context.Context) ([]*CollectionRef, error) {
	if err := a.store.record(OpListCollections, a.Path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.store.mu.RLock()
	rec := a.store.node(a.segs)
	var names []string
	if rec != nil {
		names = rec.collectionNames()
	}
	a.store.mu.RUnlock()

	out := make([]*CollectionRef, 0, len(names))
	for _, name := range names {
		out = append(out, a.store.collectionRef(a.segs.Child(name)))
	}
	return out, nil
}
