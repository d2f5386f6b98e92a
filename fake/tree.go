package fake

import (
	"fmt"
	"slices"

	"github.com/oklog/ulid/v2"

	"github.com/alimasry/firestore-fake/docpath"
	"github.com/alimasry/firestore-fake/value"
)

// Database is the seed format: root collection name to records. A record
// carries its document id under "id" and nested subcollections under
// "_collections" (name to list of records, recursively). Root names may be
// slash paths addressing a nested collection.
type Database map[string][]map[string]any

const (
	seedIDKey          = "id"
	seedCollectionsKey = "_collections"
)

// Record is a stored document. Missing records hold subcollections for a
// document that does not itself exist, the way the real database keeps
// descendants of deleted or never-written ancestors.
type Record struct {
	ID          string
	Fields      map[string]any
	Collections map[string][]*Record
	Missing     bool
	CreateTime  value.Timestamp
	UpdateTime  value.Timestamp
}

func (r *Record) exists() bool { return r != nil && !r.Missing }

// collectionNames returns subcollection names in a stable order.
func (r *Record) collectionNames() []string {
	names := make([]string, 0, len(r.Collections))
	for name := range r.Collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func findRecord(docs []*Record, id string) (int, *Record) {
	for i, rec := range docs {
		if rec.ID == id {
			return i, rec
		}
	}
	return -1, nil
}

// node returns the record at an even-length path; the empty path is the root.
func (f *Firestore) node(p docpath.Path) *Record {
	cur := f.root
	for i := 0; i+1 < len(p); i += 2 {
		_, cur = findRecord(cur.Collections[p[i]], p[i+1])
		if cur == nil {
			return nil
		}
	}
	return cur
}

// collectionDocs returns the records of the collection at an odd-length path.
func (f *Firestore) collectionDocs(p docpath.Path) []*Record {
	parent := f.node(p.Parent())
	if parent == nil {
		return nil
	}
	return parent.Collections[p.ID()]
}

// ensure returns the record at p, creating missing placeholders for it and
// every absent ancestor.
func (f *Firestore) ensure(p docpath.Path) *Record {
	cur := f.root
	for i := 0; i+1 < len(p); i += 2 {
		coll, id := p[i], p[i+1]
		_, next := findRecord(cur.Collections[coll], id)
		if next == nil {
			next = &Record{ID: id, Missing: true}
			if cur.Collections == nil {
				cur.Collections = make(map[string][]*Record)
			}
			cur.Collections[coll] = append(cur.Collections[coll], next)
		}
		cur = next
	}
	return cur
}

// remove deletes the record at p. Without recursive it keeps the record as a
// missing placeholder when it still holds subcollections.
func (f *Firestore) remove(p docpath.Path, recursive bool) {
	parent := f.node(p.Parent().Parent())
	if parent == nil {
		return
	}
	coll := p.Parent().ID()
	i, rec := findRecord(parent.Collections[coll], p.ID())
	if rec == nil {
		return
	}
	if !recursive && len(rec.Collections) > 0 {
		rec.Missing = true
		rec.Fields = nil
		return
	}
	parent.Collections[coll] = slices.Delete(parent.Collections[coll], i, i+1)
	if len(parent.Collections[coll]) == 0 {
		delete(parent.Collections, coll)
	}
	f.prune(p.Parent().Parent())
}

// removeCollection drops the collection at p with all of its descendants.
func (f *Firestore) removeCollection(p docpath.Path) {
	parent := f.node(p.Parent())
	if parent == nil {
		return
	}
	delete(parent.Collections, p.ID())
	f.prune(p.Parent())
}

// prune removes placeholders left without subcollections, walking upwards.
func (f *Firestore) prune(p docpath.Path) {
	for len(p) > 0 {
		rec := f.node(p)
		if rec == nil || !rec.Missing || len(rec.Collections) > 0 {
			return
		}
		parent := f.node(p.Parent().Parent())
		coll := p.Parent().ID()
		i, _ := findRecord(parent.Collections[coll], p.ID())
		parent.Collections[coll] = slices.Delete(parent.Collections[coll], i, i+1)
		if len(parent.Collections[coll]) == 0 {
			delete(parent.Collections, coll)
		}
		p = p.Parent().Parent()
	}
}

// newID returns a document id unused in the collection at p.
func (f *Firestore) newID(p docpath.Path) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	docs := f.collectionDocs(p)
	for {
		id := ulid.Make().String()
		if _, rec := findRecord(docs, id); rec == nil {
			return id
		}
	}
}

// buildTree deep-copies seed data into a fresh record tree.
func buildTree(db Database, now value.Timestamp) (*Record, error) {
	f := &Firestore{root: &Record{}}
	names := make([]string, 0, len(db))
	for name := range db {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p, err := docpath.Parse(name)
		if err != nil || !p.IsCollection() {
			return nil, &PathError{Path: name, Want: "collection", Reason: "seed collections need an odd number of segments"}
		}
		parent := f.ensure(p.Parent())
		recs, err := seedRecords(db[name], now)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", name, err)
		}
		if parent.Collections == nil {
			parent.Collections = make(map[string][]*Record)
		}
		parent.Collections[p.ID()] = append(parent.Collections[p.ID()], recs...)
	}
	return f.root, nil
}

func seedRecords(raw []map[string]any, now value.Timestamp) ([]*Record, error) {
	recs := make([]*Record, 0, len(raw))
	for _, doc := range raw {
		rec := &Record{Fields: make(map[string]any), CreateTime: now, UpdateTime: now}
		for k, v := range doc {
			switch k {
			case seedIDKey:
				rec.ID = fmt.Sprint(v)
			case seedCollectionsKey:
				colls, err := seedCollections(v, now)
				if err != nil {
					return nil, err
				}
				rec.Collections = colls
			default:
				n, err := value.Normalize(v)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", k, err)
				}
				rec.Fields[k] = seedTimestamps(n)
			}
		}
		if rec.ID == "" {
			rec.ID = ulid.Make().String()
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func seedCollections(v any, now value.Timestamp) (map[string][]*Record, error) {
	out := make(map[string][]*Record)
	add := func(name string, list any) error {
		raw, ok := recordList(list)
		if !ok {
			return nil
		}
		recs, err := seedRecords(raw, now)
		if err != nil {
			return fmt.Errorf("subcollection %s: %w", name, err)
		}
		out[name] = recs
		return nil
	}
	switch colls := v.(type) {
	case map[string][]map[string]any:
		for name, list := range colls {
			if err := add(name, list); err != nil {
				return nil, err
			}
		}
	case Database:
		for name, list := range colls {
			if err := add(name, list); err != nil {
				return nil, err
			}
		}
	case map[string]any:
		for name, list := range colls {
			if err := add(name, list); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// recordList accepts the list shapes produced by Go literals and by YAML or
// JSON decoding. Anything else is ignored.
func recordList(v any) ([]map[string]any, bool) {
	switch list := v.(type) {
	case []map[string]any:
		return list, true
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, e := range list {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	}
	return nil, false
}

// seedTimestamps turns {seconds, nanoseconds} maps into Timestamps, the shape
// serialized timestamps take in fixture files.
func seedTimestamps(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 2 {
			sec, okS := x["seconds"].(int64)
			nanos, okN := x["nanoseconds"].(int64)
			if okS && okN {
				return value.NewTimestamp(sec, int32(nanos))
			}
		}
		for k, e := range x {
			x[k] = seedTimestamps(e)
		}
	case []any:
		for i, e := range x {
			x[i] = seedTimestamps(e)
		}
	}
	return v
}
