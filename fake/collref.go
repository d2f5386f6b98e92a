package fake

import (
	"context"

	"github.com/golang/glog"

	"github.com/alimasry/firestore-fake/docpath"
)

// CollectionRef addresses a collection. Its embedded Query selects every
// document of the collection, so query builders can be called on it
// directly.
type CollectionRef struct {
	*Query

	ID     string
	Path   string
	Parent *DocumentRef // nil for root collections

	segs docpath.Path
	conv Converter
}

func (c *CollectionRef) refPath() docpath.Path { return c.segs }

func (c *CollectionRef) IsEqual(other *CollectionRef) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.store == other.store && c.segs.Equal(other.segs)
}

// Doc returns a reference to the document id of c. id may be a relative path
// such as "doc/sub/doc2". It returns nil for an empty or malformed id; use
// NewDoc for a generated id.
func (c *CollectionRef) Doc(id string) *DocumentRef {
	c.store.record(OpDoc, id)
	rel, err := docpath.Parse(id)
	if err != nil || len(rel)%2 == 0 {
		glog.Warningf("firestore fake: %s: invalid document id %q", c.Path, id)
		return nil
	}
	return c.doc(c.segs.Child(rel...))
}

// NewDoc returns a reference to a new document whose generated id is unused
// in c.
func (c *CollectionRef) NewDoc() *DocumentRef {
	c.store.record(OpDoc)
	return c.doc(c.segs.Child(c.store.newID(c.segs)))
}

func (c *CollectionRef) doc(p docpath.Path) *DocumentRef {
	d := c.store.documentRef(p)
	d.conv = c.conv
	return d
}

// Add writes data as a new document with a generated id.
func (c *CollectionRef) Add(ctx context.Context, data any) (*DocumentRef, *WriteResult, error) {
	if err := c.store.record(OpAdd, c.Path, data); err != nil {
		return nil, nil, err
	}
	d := c.doc(c.segs.Child(c.store.newID(c.segs)))
	wr, err := d.write(ctx, writeSet, data)
	if err != nil {
		return nil, nil, err
	}
	return d, wr, nil
}

// ListDocuments returns references to every document of c, including missing
// documents that only hold subcollections.
func (c *CollectionRef) ListDocuments(ctx context.Context) ([]*DocumentRef, error) {
	if err := c.store.record(OpListDocuments, c.Path); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.store.mu.RLock()
	docs := c.store.collectionDocs(c.segs)
	ids := make([]string, len(docs))
	for i, rec := range docs {
		ids[i] = rec.ID
	}
	c.store.mu.RUnlock()

	out := make([]*DocumentRef, len(ids))
	for i, id := range ids {
		out[i] = c.doc(c.segs.Child(id))
	}
	return out, nil
}

// WithConverter returns a copy of c whose documents and query results go
// through conv.
func (c *CollectionRef) WithConverter(conv Converter) *CollectionRef {
	c.store.record(OpWithConverter, c.Path)
	cp := *c
	cp.Query = c.Query.clone()
	cp.Query.conv = conv
	cp.conv = conv
	return &cp
}
