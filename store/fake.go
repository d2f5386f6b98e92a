package store

import (
	"context"

	"github.com/alimasry/firestore-fake/fake"
)

// FakeStore is a DocumentStore backed by a fake.Firestore. The store must be
// built with Options.Mutable for writes to be visible to later reads.
type FakeStore struct {
	db *fake.Firestore
}

func NewFakeStore(db *fake.Firestore) *FakeStore {
	return &FakeStore{db: db}
}

func (s *FakeStore) Create(ctx context.Context, path string, data map[string]any) error {
	ref, err := s.db.DocPath(path)
	if err != nil {
		return err
	}
	_, err = ref.Create(ctx, data)
	return mapError(path, err)
}

func (s *FakeStore) Get(ctx context.Context, path string) (*DocumentInfo, error) {
	ref, err := s.db.DocPath(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, mapError(path, err)
	}
	if !snap.Exists() {
		return nil, notFound(path)
	}
	info := fakeInfo(snap)
	return &info, nil
}

func fakeInfo(snap *fake.DocumentSnapshot) DocumentInfo {
	return DocumentInfo{
		ID:        snap.ID(),
		Path:      snap.Ref.Path,
		Data:      snap.Data(),
		CreatedAt: snap.CreateTime.ToTime(),
		UpdatedAt: snap.UpdateTime.ToTime(),
	}
}

func (s *FakeStore) List(ctx context.Context, collectionPath string) ([]DocumentInfo, error) {
	coll, err := s.db.CollectionPath(collectionPath)
	if err != nil {
		return nil, err
	}
	snaps, err := coll.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	result := make([]DocumentInfo, 0, len(snaps))
	for _, snap := range snaps {
		result = append(result, fakeInfo(snap))
	}
	sortByID(result)
	return result, nil
}

func (s *FakeStore) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	ref, err := s.db.DocPath(path)
	if err != nil {
		return err
	}
	if merge {
		_, err = ref.Set(ctx, data, fake.MergeAll)
	} else {
		_, err = ref.Set(ctx, data)
	}
	return mapError(path, err)
}

func (s *FakeStore) Update(ctx context.Context, path string, fields map[string]any) error {
	ref, err := s.db.DocPath(path)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, fields)
	return mapError(path, err)
}

func (s *FakeStore) Delete(ctx context.Context, path string) error {
	ref, err := s.db.DocPath(path)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return mapError(path, err)
}
