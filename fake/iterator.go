package fake

import "google.golang.org/api/iterator"

// DocumentIterator walks query results. Next returns iterator.Done after the
// last document.
type DocumentIterator struct {
	docs []*DocumentSnapshot
	pos  int
	err  error
}

func (it *DocumentIterator) Next() (*DocumentSnapshot, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.pos >= len(it.docs) {
		return nil, iterator.Done
	}
	d := it.docs[it.pos]
	it.pos++
	return d, nil
}

// GetAll returns the remaining documents.
func (it *DocumentIterator) GetAll() ([]*DocumentSnapshot, error) {
	var out []*DocumentSnapshot
	for {
		d, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
}

// Stop ends the iteration; later calls to Next return iterator.Done.
func (it *DocumentIterator) Stop() {
	if it.err == nil {
		it.pos = len(it.docs)
	}
}
