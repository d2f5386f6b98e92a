// Package firebase ties a seed, store options, and a current user together so
// tests can build fake Firestore clients and an auth facade that share one
// operation log.
package firebase

import (
	"sync"

	"github.com/golang/glog"

	"github.com/alimasry/firestore-fake/auth"
	"github.com/alimasry/firestore-fake/fake"
	"github.com/alimasry/firestore-fake/oplog"
)

const (
	OpInitializeApp = "initializeApp"
	OpCert          = "credential.cert"
)

// Config is the state every facade built by an App starts from.
type Config struct {
	Database    fake.Database  `yaml:"database" json:"database"`
	CurrentUser map[string]any `yaml:"currentUser" json:"currentUser"`
	Options     fake.Options   `yaml:"options" json:"options"`
}

type App struct {
	cfg Config
	log *oplog.Log

	authOnce sync.Once
	auth     *auth.Auth
}

// New returns an App. cfg.Options.Log, when set, becomes the shared log.
func New(cfg Config) *App {
	log := cfg.Options.Log
	if log == nil {
		log = oplog.New()
	}
	cfg.Options.Log = log
	return &App{cfg: cfg, log: log}
}

func (a *App) Log() *oplog.Log { return a.log }

// InitializeApp is recorded and otherwise ignored.
func (a *App) InitializeApp(opts any) {
	a.log.Record(OpInitializeApp, opts)
	glog.V(2).Infof("firebase fake: initializeApp %v", opts)
}

// Cert is recorded and returns serviceAccount unchanged.
func (a *App) Cert(serviceAccount any) any {
	a.log.Record(OpCert, serviceAccount)
	return serviceAccount
}

// Firestore returns a new client store seeded from a fresh copy of the
// configured database.
func (a *App) Firestore() (*fake.Firestore, error) {
	return a.firestore(fake.KindClient)
}

// AdminFirestore is like Firestore but its document references expose the
// admin-only operations.
func (a *App) AdminFirestore() (*fake.Firestore, error) {
	return a.firestore(fake.KindAdmin)
}

func (a *App) firestore(kind fake.Kind) (*fake.Firestore, error) {
	opts := a.cfg.Options
	opts.Kind = kind
	return fake.New(a.cfg.Database, opts)
}

// Auth returns the app's auth facade. Every call returns the same instance.
func (a *App) Auth() *auth.Auth {
	a.authOnce.Do(func() {
		a.auth = auth.New(a.cfg.CurrentUser, a.log)
	})
	return a.auth
}
