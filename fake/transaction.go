package fake

import "context"

// Transaction is handed to the function passed to RunTransaction. Reads are
// recorded as transaction reads rather than reference reads. Writes go
// through the references and apply immediately; each returns the transaction.
// After the first failed write, later writes are skipped and Err reports it.
type Transaction struct {
	store *Firestore
	ctx   context.Context
	err   error
}

func (t *Transaction) Get(ref *DocumentRef) (*DocumentSnapshot, error) {
	if err := t.store.record(OpTransactionGet, ref.Path); err != nil {
		return nil, err
	}
	return ref.read(), nil
}

// Documents runs q inside the transaction.
func (t *Transaction) Documents(q *Query) *DocumentIterator {
	if err := t.store.record(OpTransactionGet, q.target()); err != nil {
		return &DocumentIterator{err: err}
	}
	snap, err := q.snapshot(t.ctx)
	if err != nil {
		return &DocumentIterator{err: err}
	}
	return &DocumentIterator{docs: snap.Docs}
}

// GetAll reads refs in order. It is recorded as a transaction read and as a
// root GetAll; the individual references record nothing.
func (t *Transaction) GetAll(refs []*DocumentRef) ([]*DocumentSnapshot, error) {
	if err := t.store.record(OpTransactionGetAll, refArgs(refs)...); err != nil {
		return nil, err
	}
	return t.store.GetAll(t.ctx, refs)
}

func (t *Transaction) Set(ref *DocumentRef, data any, opts ...SetOption) *Transaction {
	if t.err == nil && t.keep(t.store.record(OpTransactionSet, ref.Path, data)) {
		_, err := ref.Set(t.ctx, data, opts...)
		t.keep(err)
	}
	return t
}

func (t *Transaction) Update(ref *DocumentRef, data any) *Transaction {
	if t.err == nil && t.keep(t.store.record(OpTransactionUpdate, ref.Path, data)) {
		_, err := ref.Update(t.ctx, data)
		t.keep(err)
	}
	return t
}

func (t *Transaction) Create(ref *DocumentRef, data any) *Transaction {
	if t.err == nil && t.keep(t.store.record(OpTransactionCreate, ref.Path, data)) {
		_, err := ref.Create(t.ctx, data)
		t.keep(err)
	}
	return t
}

func (t *Transaction) Delete(ref *DocumentRef) *Transaction {
	if t.err == nil && t.keep(t.store.record(OpTransactionDelete, ref.Path)) {
		_, err := ref.Delete(t.ctx)
		t.keep(err)
	}
	return t
}

// Err returns the first error from a transaction write.
func (t *Transaction) Err() error { return t.err }

// keep stores err if it is the first one and reports whether err was nil.
func (t *Transaction) keep(err error) bool {
	if err != nil && t.err == nil {
		t.err = err
	}
	return err == nil
}
