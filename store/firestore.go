package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// FirestoreStore is a DocumentStore backed by a Firestore client. Pointing the
// client at an emulator gives the same behaviour as FakeStore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new FirestoreStore using the given Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) docRef(path string) (*firestore.DocumentRef, error) {
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, invalidPath(path)
	}
	return ref, nil
}

func (s *FirestoreStore) Create(ctx context.Context, path string, data map[string]any) error {
	ref, err := s.docRef(path)
	if err != nil {
		return err
	}
	_, err = ref.Create(ctx, data)
	return mapError(path, err)
}

func (s *FirestoreStore) Get(ctx context.Context, path string) (*DocumentInfo, error) {
	ref, err := s.docRef(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, mapError(path, err)
	}
	info := snapshotToDocInfo(path, snap)
	return &info, nil
}

func snapshotToDocInfo(path string, snap *firestore.DocumentSnapshot) DocumentInfo {
	return DocumentInfo{
		ID:        docID(path),
		Path:      path,
		Data:      snap.Data(),
		CreatedAt: snap.CreateTime,
		UpdatedAt: snap.UpdateTime,
	}
}

func (s *FirestoreStore) List(ctx context.Context, collectionPath string) ([]DocumentInfo, error) {
	coll := s.client.Collection(collectionPath)
	if coll == nil {
		return nil, invalidPath(collectionPath)
	}
	iter := coll.Documents(ctx)
	defer iter.Stop()

	var result []DocumentInfo
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		result = append(result, snapshotToDocInfo(collectionPath+"/"+snap.Ref.ID, snap))
	}
	sortByID(result)
	return result, nil
}

func (s *FirestoreStore) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	ref, err := s.docRef(path)
	if err != nil {
		return err
	}
	if merge {
		_, err = ref.Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, data)
	}
	return mapError(path, err)
}

// Update takes dotted field paths as keys, like FakeStore.
func (s *FirestoreStore) Update(ctx context.Context, path string, fields map[string]any) error {
	ref, err := s.docRef(path)
	if err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	_, err = ref.Update(ctx, updates)
	return mapError(path, err)
}

func (s *FirestoreStore) Delete(ctx context.Context, path string) error {
	ref, err := s.docRef(path)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return mapError(path, err)
}
