package fake

import (
	"context"
	"fmt"

	"github.com/golang/glog"
)

// WriteBatch queues writes and applies them, in order, on Commit.
type WriteBatch struct {
	store  *Firestore
	writes []batchWrite
}

type batchWrite struct {
	kind   writeKind
	delete bool
	ref    *DocumentRef
	data   any
}

func (b *WriteBatch) Set(ref *DocumentRef, data any, opts ...SetOption) *WriteBatch {
	kind := writeSet
	for _, o := range opts {
		if o.merge {
			kind = writeMerge
		}
	}
	b.store.record(OpBatchSet, ref.Path, data, kind == writeMerge)
	b.writes = append(b.writes, batchWrite{kind: kind, ref: ref, data: data})
	return b
}

func (b *WriteBatch) Create(ref *DocumentRef, data any) *WriteBatch {
	b.store.record(OpBatchCreate, ref.Path, data)
	b.writes = append(b.writes, batchWrite{kind: writeCreate, ref: ref, data: data})
	return b
}

func (b *WriteBatch) Update(ref *DocumentRef, data any) *WriteBatch {
	b.store.record(OpBatchUpdate, ref.Path, data)
	b.writes = append(b.writes, batchWrite{kind: writeUpdate, ref: ref, data: data})
	return b
}

func (b *WriteBatch) Delete(ref *DocumentRef) *WriteBatch {
	b.store.record(OpBatchDelete, ref.Path)
	b.writes = append(b.writes, batchWrite{delete: true, ref: ref})
	return b
}

// Commit applies the queued writes in order. It stops at the first failing
// write; earlier writes stay applied.
func (b *WriteBatch) Commit(ctx context.Context) ([]*WriteResult, error) {
	if err := b.store.record(OpBatchCommit, len(b.writes)); err != nil {
		return nil, err
	}
	results := make([]*WriteResult, 0, len(b.writes))
	for i, w := range b.writes {
		var (
			wr  *WriteResult
			err error
		)
		if w.delete {
			wr, err = w.ref.remove(ctx)
		} else {
			wr, err = w.ref.write(ctx, w.kind, w.data)
		}
		if err != nil {
			glog.Warningf("firestore fake: batch write %d on %s failed: %v", i, w.ref.Path, err)
			return nil, fmt.Errorf("batch write %d on %s: %w", i, w.ref.Path, err)
		}
		results = append(results, wr)
	}
	return results, nil
}
