package fake

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alimasry/firestore-fake/value"
)

func animalsDB() Database {
	return Database{
		"animals": {
			{
				"id": "monkey", "name": "monkey", "type": "mammal", "legCount": 2,
				"food": []any{"banana", "mango"}, "foodCount": 1, "foodEaten": []any{500, 20},
				"createdAt": value.NewTimestamp(1628939119, 0),
			},
			{
				"id": "elephant", "name": "elephant", "type": "mammal", "legCount": 4,
				"food": []any{"banana", "peanut"}, "foodCount": 0, "foodEaten": []any{0, 500},
				"createdAt": value.NewTimestamp(1628939129, 0),
			},
			{
				"id": "chicken", "name": "chicken", "type": "bird", "legCount": 2,
				"food": []any{"leaf", "nut", "ant"}, "foodCount": 4, "foodEaten": []any{80, 20, 16},
				"createdAt": value.NewTimestamp(1628939139, 0),
				"_collections": map[string][]map[string]any{
					"foodSchedule": {
						{"id": "nut", "interval": "whenever"},
						{"id": "leaf", "interval": "hourly"},
					},
				},
			},
			{
				"id": "ant", "name": "ant", "type": "insect", "legCount": 6,
				"food": []any{"leaf", "bread"}, "foodCount": 2, "foodEaten": []any{80, 12},
				"createdAt": value.NewTimestamp(1628939149, 0),
				"_collections": map[string][]map[string]any{
					"foodSchedule": {
						{"id": "leaf", "interval": "daily"},
						{"id": "peanut", "interval": "weekly"},
					},
				},
			},
			{"id": "worm", "name": "worm", "legCount": nil},
			{"id": "pogo-stick", "name": "pogo-stick", "food": false, "flags": []any{false, "bouncy"}},
			{"id": "cow", "name": "cow", "flags": []any{true}, "appearance": map[string]any{"color": "brown", "size": "large"}},
		},
		"foodSchedule": {
			{"id": "ants", "interval": "daily"},
			{"id": "cows", "interval": "twice daily"},
		},
		"nested": {
			{
				"id": "collections",
				"_collections": map[string]any{
					"have": []any{map[string]any{
						"id": "lots",
						"_collections": map[string]any{
							"of": []any{map[string]any{
								"id": "applications",
								"_collections": map[string]any{
									"foodSchedule": []any{
										map[string]any{"id": "layer4_a", "interval": "daily"},
										map[string]any{"id": "layer4_b", "interval": "weekly"},
									},
								},
							}},
						},
					}},
				},
			},
		},
	}
}

func charactersDB() Database {
	return Database{
		"characters": {
			{"id": "homer", "name": "Homer", "occupation": "technician", "address": map[string]any{"street": "742 Evergreen Terrace"}},
			{"id": "krusty", "name": "Krusty", "occupation": "clown"},
			{
				"id": "bob", "name": "Bob", "occupation": "insurance agent",
				"_collections": map[string][]map[string]any{
					"family": {
						{"id": "violet", "name": "Violet", "relation": "daughter"},
						{"id": "dash", "name": "Dash", "relation": "son"},
						{"id": "jackjack", "name": "Jackjack", "relation": "son"},
						{"id": "helen", "name": "Helen", "relation": "wife"},
					},
				},
			},
		},
	}
}

func newStore(t *testing.T, db Database, opts Options) *Firestore {
	t.Helper()
	f, err := New(db, opts)
	require.NoError(t, err)
	return f
}

func ids(docs []*DocumentSnapshot) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID()
	}
	return out
}
