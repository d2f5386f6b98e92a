package fake

import (
	"context"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/golang/glog"

	"github.com/alimasry/firestore-fake/docpath"
	"github.com/alimasry/firestore-fake/value"
)

// Query selects documents from one collection, or from every collection of a
// name when built by Firestore.CollectionGroup. Builder methods modify the
// query in place and return it.
type Query struct {
	store  *Firestore
	parent docpath.Path // document holding the collection; empty at root
	collID string
	group  bool

	filters  []filter
	orders   []order
	limit    int // negative means no limit
	offset   int
	selected bool
	fields   []string

	startAt    []any
	startAfter []any

	conv Converter
	err  error
}

type order struct {
	path string
	desc bool
}

func (q *Query) clone() *Query {
	cp := *q
	cp.filters = slices.Clone(q.filters)
	cp.orders = slices.Clone(q.orders)
	cp.fields = slices.Clone(q.fields)
	cp.startAt = slices.Clone(q.startAt)
	cp.startAfter = slices.Clone(q.startAfter)
	return &cp
}

// target names what the query reads, for the operation log.
func (q *Query) target() string {
	if q.group {
		return q.collID
	}
	return q.parent.Child(q.collID).String()
}

// Where adds a filter. An invalid filter (null compared with an ordering or
// membership operator, a non-array operand for "in", "not-in" or
// "array-contains-any", or an unknown operator) is reported by Err and by
// every later read of the query.
func (q *Query) Where(path, op string, v any) *Query {
	q.store.record(OpWhere, path, op, v)
	f, err := newFilter(path, op, v)
	if err != nil {
		glog.Warningf("firestore fake: %s: %v", q.target(), err)
		if q.err == nil {
			q.err = err
		}
		return q
	}
	q.filters = append(q.filters, f)
	return q
}

// Err returns the first error from building the query.
func (q *Query) Err() error { return q.err }

// OrderBy adds a sort key. The zero Direction sorts ascending.
func (q *Query) OrderBy(path string, dir firestore.Direction) *Query {
	q.store.record(OpOrderBy, path, dir)
	q.orders = append(q.orders, order{path: path, desc: dir == firestore.Desc})
	return q
}

func (q *Query) Limit(n int) *Query {
	q.store.record(OpLimit, n)
	q.limit = n
	return q
}

func (q *Query) Offset(n int) *Query {
	q.store.record(OpOffset, n)
	q.offset = n
	return q
}

// StartAt is recorded but does not affect results.
func (q *Query) StartAt(vals ...any) *Query {
	q.store.record(OpStartAt, vals...)
	q.startAt = vals
	return q
}

// StartAfter is recorded but does not affect results.
func (q *Query) StartAfter(vals ...any) *Query {
	q.store.record(OpStartAfter, vals...)
	q.startAfter = vals
	return q
}

// Select restricts snapshot data to the given field paths.
func (q *Query) Select(paths ...string) *Query {
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}
	q.store.record(OpSelect, args...)
	q.selected = true
	q.fields = slices.Clone(paths)
	return q
}

// WithConverter returns a copy of q whose results go through conv.
func (q *Query) WithConverter(conv Converter) *Query {
	q.store.record(OpWithConverter, q.target())
	cp := q.clone()
	cp.conv = conv
	return cp
}

// Get runs the query.
func (q *Query) Get(ctx context.Context) (*QuerySnapshot, error) {
	out := q.store.recordOutcome(OpGet, q.target())
	if out.Err != nil {
		return nil, out.Err
	}
	if snap, ok := out.Value.(*QuerySnapshot); ok {
		return snap, nil
	}
	return q.snapshot(ctx)
}

// Documents runs the query and returns an iterator over its results.
func (q *Query) Documents(ctx context.Context) *DocumentIterator {
	snap, err := q.Get(ctx)
	if err != nil {
		return &DocumentIterator{err: err}
	}
	return &DocumentIterator{docs: snap.Docs}
}

// OnSnapshot schedules one delivery of the query results to cb on the next
// Flush of the store. The returned function cancels it if it has not run.
func (q *Query) OnSnapshot(cb func(*QuerySnapshot, error)) func() {
	err := q.store.record(OpQueryOnSnapshot, q.target())
	cancel := q.store.schedule(func() {
		if err != nil {
			cb(nil, err)
			return
		}
		cb(q.snapshot(context.Background()))
	})
	return func() {
		q.store.record(OpQueryUnsubscribe, q.target())
		cancel()
	}
}

func (q *Query) snapshot(ctx context.Context) (*QuerySnapshot, error) {
	if q.err != nil {
		return nil, q.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := q.store.now()
	return &QuerySnapshot{Docs: q.run(now), ReadTime: now, Query: q}, nil
}

type hit struct {
	path docpath.Path
	rec  *Record
}

func (q *Query) run(now value.Timestamp) []*DocumentSnapshot {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()

	hits := q.collect()
	if q.store.opts.SimulateQueryFilters && len(q.filters) > 0 {
		hits = slices.DeleteFunc(hits, func(h hit) bool {
			for _, f := range q.filters {
				if !f.matches(h.rec) {
					return true
				}
			}
			return false
		})
	}
	if len(q.orders) > 0 {
		if q.store.opts.SimulateQueryFilters {
			hits = slices.DeleteFunc(hits, q.lacksOrderField)
		}
		slices.SortStableFunc(hits, q.compare)
	}
	if q.offset > 0 {
		hits = hits[min(q.offset, len(hits)):]
	}
	if q.limit >= 0 && q.limit < len(hits) {
		hits = hits[:q.limit]
	}

	docs := make([]*DocumentSnapshot, len(hits))
	for i, h := range hits {
		ref := q.store.documentRef(h.path)
		ref.conv = q.conv
		snap := newDocumentSnapshot(ref, h.rec, now)
		if q.selected {
			snap.data = value.Project(h.rec.Fields, q.fields)
			if q.store.opts.IncludeIDsInData {
				snap.data[seedIDKey] = h.rec.ID
			}
		}
		docs[i] = snap
	}
	return docs
}

// lacksOrderField reports whether h has no value for one of the order paths.
func (q *Query) lacksOrderField(h hit) bool {
	for _, o := range q.orders {
		if _, ok := fieldValue(h.rec, o.path); !ok {
			return true
		}
	}
	return false
}

// compare orders hits by the order paths. An absent field sorts as null.
func (q *Query) compare(a, b hit) int {
	for _, o := range q.orders {
		av, _ := fieldValue(a.rec, o.path)
		bv, _ := fieldValue(b.rec, o.path)
		c := value.Order(av, bv)
		if o.desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// collect returns the existing documents the query targets, in stored order.
// Collection groups are gathered depth-first across the whole tree.
func (q *Query) collect() []hit {
	var hits []hit
	if !q.group {
		coll := q.parent.Child(q.collID)
		for _, rec := range q.store.collectionDocs(coll) {
			if rec.exists() {
				hits = append(hits, hit{path: coll.Child(rec.ID), rec: rec})
			}
		}
		return hits
	}
	var walk func(rec *Record, p docpath.Path)
	walk = func(rec *Record, p docpath.Path) {
		for _, name := range rec.collectionNames() {
			for _, doc := range rec.Collections[name] {
				dp := p.Child(name, doc.ID)
				if name == q.collID && doc.exists() {
					hits = append(hits, hit{path: dp, rec: doc})
				}
				walk(doc, dp)
			}
		}
	}
	walk(q.store.root, nil)
	return hits
}
