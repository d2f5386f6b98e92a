// Package fake is an in-memory stand-in for a Firestore client. It holds a
// seeded document tree, answers reads and queries against it, applies writes
// when configured to be mutable, and records every public operation in an
// oplog.Log so tests can assert on call sites.
package fake

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/alimasry/firestore-fake/docpath"
	"github.com/alimasry/firestore-fake/oplog"
	"github.com/alimasry/firestore-fake/value"
)

// Kind selects which product surface references expose.
type Kind int

const (
	KindClient Kind = iota
	KindAdmin
)

type Options struct {
	// Mutable applies writes to the tree. When false, writes are recorded and
	// answered but leave the seed untouched.
	Mutable bool `yaml:"mutable" json:"mutable"`
	// SimulateQueryFilters evaluates where clauses. When false every document
	// of the target collection is returned and filters are only recorded.
	SimulateQueryFilters bool `yaml:"simulateQueryFilters" json:"simulateQueryFilters"`
	// IncludeIDsInData adds the document id under "id" to snapshot data.
	IncludeIDsInData bool `yaml:"includeIdsInData" json:"includeIdsInData"`

	Kind Kind                   `yaml:"-" json:"-"`
	Log  *oplog.Log             `yaml:"-" json:"-"`
	Now  func() value.Timestamp `yaml:"-" json:"-"`
}

// Firestore is the root of a fake database. It is safe for concurrent use.
type Firestore struct {
	opts Options
	log  *oplog.Log
	now  func() value.Timestamp

	mu   sync.RWMutex
	root *Record

	lmu     sync.Mutex
	pending []*delivery
}

// New builds a store from a deep copy of db.
func New(db Database, opts Options) (*Firestore, error) {
	f := &Firestore{opts: opts, log: opts.Log, now: opts.Now}
	if f.log == nil {
		f.log = oplog.New()
	}
	if f.now == nil {
		f.now = value.Now
	}
	root, err := buildTree(db, f.now())
	if err != nil {
		return nil, err
	}
	f.root = root
	return f, nil
}

// MustNew is like New but panics on a malformed seed.
func MustNew(db Database, opts Options) *Firestore {
	f, err := New(db, opts)
	if err != nil {
		panic(err)
	}
	return f
}

// Log returns the operation log shared by every reference of this store.
func (f *Firestore) Log() *oplog.Log { return f.log }

func (f *Firestore) Options() Options { return f.opts }

// record logs op and returns the error injected for it, if any.
func (f *Firestore) record(op string, args ...any) error {
	return f.recordOutcome(op, args...).Err
}

func (f *Firestore) recordOutcome(op string, args ...any) oplog.Outcome {
	out := f.log.Record(op, args...)
	glog.V(2).Infof("firestore fake: %s %v", op, args)
	if out.Err != nil {
		glog.V(2).Infof("firestore fake: %s failing with injected error: %v", op, out.Err)
	}
	return out
}

// Collection returns a reference to the collection at path, relative to the
// root. It returns nil when path does not name a collection.
func (f *Firestore) Collection(path string) *CollectionRef {
	c, err := f.CollectionPath(path)
	if err != nil {
		glog.Warningf("firestore fake: %v", err)
		return nil
	}
	return c
}

// CollectionPath is Collection with the path error reported.
func (f *Firestore) CollectionPath(path string) (*CollectionRef, error) {
	f.record(OpCollection, path)
	p, err := parsePath(path, "collection")
	if err != nil {
		return nil, err
	}
	return f.collectionRef(p), nil
}

// Doc returns a reference to the document at path, relative to the root. It
// returns nil when path does not name a document.
func (f *Firestore) Doc(path string) *DocumentRef {
	d, err := f.DocPath(path)
	if err != nil {
		glog.Warningf("firestore fake: %v", err)
		return nil
	}
	return d
}

// DocPath is Doc with the path error reported.
func (f *Firestore) DocPath(path string) (*DocumentRef, error) {
	f.record(OpDoc, path)
	p, err := parsePath(path, "document")
	if err != nil {
		return nil, err
	}
	return f.documentRef(p), nil
}

func parsePath(path, want string) (docpath.Path, error) {
	p, err := docpath.Parse(path)
	if err != nil {
		return nil, &PathError{Path: path, Want: want, Reason: err.Error()}
	}
	if want == "collection" && !p.IsCollection() {
		return nil, &PathError{Path: path, Want: want, Reason: "a collection path needs an odd number of segments"}
	}
	if want == "document" && !p.IsDocument() {
		return nil, &PathError{Path: path, Want: want, Reason: "a document path needs an even number of segments"}
	}
	return p, nil
}

// CollectionGroup returns a query over every collection named id, at any
// depth.
func (f *Firestore) CollectionGroup(id string) *Query {
	f.record(OpCollectionGroup, id)
	return &Query{store: f, collID: id, group: true, limit: -1}
}

// GetAll reads refs in order. Missing documents yield snapshots whose Exists
// reports false.
func (f *Firestore) GetAll(ctx context.Context, refs []*DocumentRef) ([]*DocumentSnapshot, error) {
	if err := f.record(OpGetAll, refArgs(refs)...); err != nil {
		return nil, err
	}
	return f.readAll(ctx, refs)
}

func (f *Firestore) readAll(ctx context.Context, refs []*DocumentRef) ([]*DocumentSnapshot, error) {
	out := make([]*DocumentSnapshot, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, ref.read())
	}
	return out, nil
}

func refArgs(refs []*DocumentRef) []any {
	args := make([]any, len(refs))
	for i, r := range refs {
		args[i] = r.Path
	}
	return args
}

// Reference is implemented by *DocumentRef and *CollectionRef.
type Reference interface {
	refPath() docpath.Path
}

// RecursiveDelete removes the referenced document or every document of the
// referenced collection, together with all of their subcollections.
func (f *Firestore) RecursiveDelete(ctx context.Context, ref Reference) error {
	p := ref.refPath()
	if err := f.record(OpRecursiveDelete, p.String()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !f.opts.Mutable {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.IsCollection() {
		f.removeCollection(p)
	} else {
		f.remove(p, true)
	}
	return nil
}

// Batch returns an empty write batch.
func (f *Firestore) Batch() *WriteBatch {
	f.record(OpBatch)
	return &WriteBatch{store: f}
}

// RunTransaction calls fn once with a fresh transaction. Writes made through
// the transaction are applied as they are issued. fn's error is returned;
// otherwise the first write error the transaction saw.
func (f *Firestore) RunTransaction(ctx context.Context, fn func(context.Context, *Transaction) error) error {
	if err := f.record(OpRunTransaction); err != nil {
		return err
	}
	tx := &Transaction{store: f, ctx: ctx}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.err
}

// RunTransactionValue is RunTransaction for a callback that produces a
// result. The result is returned when the transaction succeeds.
func RunTransactionValue[T any](ctx context.Context, f *Firestore, fn func(context.Context, *Transaction) (T, error)) (T, error) {
	var out T
	err := f.RunTransaction(ctx, func(ctx context.Context, tx *Transaction) error {
		v, err := fn(ctx, tx)
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Settings is recorded and otherwise ignored.
func (f *Firestore) Settings(opts any) {
	f.record(OpSettings, opts)
}

// UseEmulator is recorded and otherwise ignored.
func (f *Firestore) UseEmulator(host string, port int) {
	f.record(OpUseEmulator, host, port)
}

func (f *Firestore) collectionRef(p docpath.Path) *CollectionRef {
	c := &CollectionRef{
		ID:   p.ID(),
		Path: p.String(),
		segs: p,
	}
	c.Query = &Query{store: f, parent: p.Parent(), collID: p.ID(), limit: -1}
	if len(p) > 1 {
		c.Parent = f.documentRef(p.Parent())
	}
	return c
}

func (f *Firestore) documentRef(p docpath.Path) *DocumentRef {
	return &DocumentRef{
		ID:     p.ID(),
		Path:   p.String(),
		Parent: f.collectionRef(p.Parent()),
		segs:   p,
		store:  f,
	}
}
