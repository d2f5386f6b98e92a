// Package auth is a fake of the Firebase authentication surface used next to
// the fake Firestore. Every operation is recorded in the same oplog.Log as the
// store, and results can be overridden with Log.ReturnNext or failed with
// Log.FailNext.
package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"maps"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"

	"github.com/alimasry/firestore-fake/oplog"
)

const (
	OpCreateUserWithEmailAndPassword = "auth.createUserWithEmailAndPassword"
	OpSignInWithEmailAndPassword     = "auth.signInWithEmailAndPassword"
	OpSignOut                        = "auth.signOut"
	OpSendPasswordResetEmail         = "auth.sendPasswordResetEmail"
	OpSendEmailVerification          = "auth.sendEmailVerification"
	OpDeleteUser                     = "auth.deleteUser"
	OpVerifyIDToken                  = "auth.verifyIdToken"
	OpGetUser                        = "auth.getUser"
	OpCreateCustomToken              = "auth.createCustomToken"
	OpSetCustomUserClaims            = "auth.setCustomUserClaims"
	OpUseEmulator                    = "auth.useEmulator"
)

const uidKey = "uid"

// UserRecord is a user as returned by CurrentUser and GetUser.
type UserRecord struct {
	UID  string
	Data map[string]any
}

// UserCredential is the result of creating a user or signing in.
type UserCredential struct {
	User *UserRecord
}

// Token is a verified ID token.
type Token struct {
	UID    string
	Claims map[string]any
}

// Auth answers every sign-in with the configured current user.
type Auth struct {
	log    *oplog.Log
	user   map[string]any
	secret []byte

	mu     sync.Mutex
	claims map[string]map[string]any
}

// New returns an Auth whose current user is currentUser, a map holding at
// least "uid". A nil log gets a private one.
func New(currentUser map[string]any, log *oplog.Log) *Auth {
	if log == nil {
		log = oplog.New()
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(fmt.Sprintf("auth: read signing key: %v", err))
	}
	return &Auth{
		log:    log,
		user:   maps.Clone(currentUser),
		secret: secret,
		claims: make(map[string]map[string]any),
	}
}

func (a *Auth) Log() *oplog.Log { return a.log }

func (a *Auth) record(op string, args ...any) oplog.Outcome {
	out := a.log.Record(op, args...)
	glog.V(2).Infof("auth fake: %s %v", op, args)
	return out
}

// CurrentUser splits the configured user into its uid and remaining data.
func (a *Auth) CurrentUser() *UserRecord {
	data := maps.Clone(a.user)
	if data == nil {
		data = make(map[string]any)
	}
	uid, _ := data[uidKey].(string)
	delete(data, uidKey)
	return &UserRecord{UID: uid, Data: data}
}

func (a *Auth) credential(op string, args ...any) (*UserCredential, error) {
	out := a.record(op, args...)
	if out.Err != nil {
		return nil, out.Err
	}
	if c, ok := out.Value.(*UserCredential); ok {
		return c, nil
	}
	return &UserCredential{User: a.CurrentUser()}, nil
}

func (a *Auth) CreateUserWithEmailAndPassword(ctx context.Context, email, password string) (*UserCredential, error) {
	return a.credential(OpCreateUserWithEmailAndPassword, email, password)
}

func (a *Auth) SignInWithEmailAndPassword(ctx context.Context, email, password string) (*UserCredential, error) {
	return a.credential(OpSignInWithEmailAndPassword, email, password)
}

func (a *Auth) SignOut(ctx context.Context) error {
	return a.record(OpSignOut).Err
}

// SendPasswordResetEmail records the request; settings are the action code
// settings of the real API and are not interpreted.
func (a *Auth) SendPasswordResetEmail(ctx context.Context, email string, settings any) error {
	return a.record(OpSendPasswordResetEmail, email, settings).Err
}

// SendEmailVerification records a verification mail for the current user.
func (a *Auth) SendEmailVerification(ctx context.Context) error {
	return a.record(OpSendEmailVerification, a.CurrentUser().UID).Err
}

func (a *Auth) DeleteUser(ctx context.Context, uid string) error {
	return a.record(OpDeleteUser, uid).Err
}

func (a *Auth) UseEmulator(url string) {
	a.record(OpUseEmulator, url)
}

// GetUser returns the injected result, or a record holding only uid.
func (a *Auth) GetUser(ctx context.Context, uid string) (*UserRecord, error) {
	out := a.record(OpGetUser, uid)
	if out.Err != nil {
		return nil, out.Err
	}
	if u, ok := out.Value.(*UserRecord); ok {
		return u, nil
	}
	return &UserRecord{UID: uid, Data: map[string]any{}}, nil
}

// SetCustomUserClaims stores claims that later custom tokens for uid carry.
func (a *Auth) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]any) error {
	if err := a.record(OpSetCustomUserClaims, uid, claims).Err; err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.claims[uid] = maps.Clone(claims)
	return nil
}

// CreateCustomToken returns an HS256 token for uid signed with a key private
// to this Auth. claims are merged over those set with SetCustomUserClaims.
func (a *Auth) CreateCustomToken(ctx context.Context, uid string, claims map[string]any) (string, error) {
	out := a.record(OpCreateCustomToken, uid, claims)
	if out.Err != nil {
		return "", out.Err
	}
	if s, ok := out.Value.(string); ok {
		return s, nil
	}

	a.mu.Lock()
	merged := maps.Clone(a.claims[uid])
	a.mu.Unlock()
	if merged == nil {
		merged = make(map[string]any)
	}
	maps.Copy(merged, claims)

	now := time.Now()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub":    uid,
		"uid":    uid,
		"claims": merged,
		"iat":    now.Unix(),
		"exp":    now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign custom token: %w", err)
	}
	return signed, nil
}

// VerifyIDToken returns the injected result, the contents of a token issued
// by CreateCustomToken, or otherwise the current user.
func (a *Auth) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	out := a.record(OpVerifyIDToken, idToken)
	if out.Err != nil {
		return nil, out.Err
	}
	if t, ok := out.Value.(*Token); ok {
		return t, nil
	}
	t, err := a.parse(idToken)
	if err == nil {
		return t, nil
	}
	glog.V(2).Infof("auth fake: token not issued here, using current user: %v", err)
	u := a.CurrentUser()
	return &Token{UID: u.UID, Claims: u.Data}, nil
}

func (a *Auth) parse(idToken string) (*Token, error) {
	claims := gojwt.MapClaims{}
	_, err := gojwt.ParseWithClaims(idToken, claims, func(*gojwt.Token) (any, error) {
		return a.secret, nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	uid, _ := claims["uid"].(string)
	custom, _ := claims["claims"].(map[string]any)
	if custom == nil {
		custom = make(map[string]any)
	}
	return &Token{UID: uid, Claims: custom}, nil
}
