// Package fixture loads seed data, store options, and the current user from
// YAML or JSON files.
//
// A fixture looks like:
//
//	options:
//	  mutable: true
//	  simulateQueryFilters: true
//	currentUser:
//	  uid: homer-user
//	database:
//	  characters:
//	    - id: homer
//	      name: Homer
//	      _collections:
//	        family:
//	          - id: bart
//	            name: Bart
//
// Timestamps are written as maps with exactly the keys seconds and
// nanoseconds.
package fixture

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alimasry/firestore-fake/firebase"
)

// Load decodes a fixture. JSON input is accepted since it is valid YAML.
// Unknown top-level keys are rejected.
func Load(r io.Reader) (firebase.Config, error) {
	var cfg firebase.Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return firebase.Config{}, fmt.Errorf("decode fixture: %w", err)
	}
	return cfg, nil
}

// LoadFile is Load on the named file.
func LoadFile(path string) (firebase.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return firebase.Config{}, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return firebase.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
