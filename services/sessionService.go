package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the user-visible login failure (HTTP 401). It
// deliberately does not say which half of the pair was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// SessionRegistry issues and tracks admin session tokens. This is a
// capability check, not an identity system: one configured credential pair,
// and possession of an active token is the entire proof of admin identity.
//
// Tokens are HMAC-signed JWTs carrying a random jti, which makes them
// unguessable, but validity is purely membership in the active set: no
// expiry, valid until revoked, gone on restart.
type SessionRegistry struct {
	username     string
	password     string
	passwordHash string
	secret       []byte

	mu     sync.Mutex
	active map[string]struct{}
}

// NewSessionRegistry builds a registry for one admin credential pair. When
// passwordHash (bcrypt) is set it wins over the plain password.
func NewSessionRegistry(username, password, passwordHash string, secret []byte) *SessionRegistry {
	return &SessionRegistry{
		username:     username,
		password:     password,
		passwordHash: passwordHash,
		secret:       secret,
		active:       make(map[string]struct{}),
	}
}

// NewSessionRegistryFromEnv reads ADMIN_USERNAME, ADMIN_PASSWORD,
// ADMIN_PASSWORD_HASH and SECRET. A missing SECRET gets a random one, which
// only matters for token shape since validity lives in the active set.
func NewSessionRegistryFromEnv() *SessionRegistry {
	secret := []byte(os.Getenv("SECRET"))
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatal(err)
		}
		log.Println("WARNING: SECRET not set, using a random per-process signing key")
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	return NewSessionRegistry(username, os.Getenv("ADMIN_PASSWORD"), os.Getenv("ADMIN_PASSWORD_HASH"), secret)
}

// Issue verifies the credential pair and, on match, mints a fresh token and
// records it active. The token is guaranteed unique among active tokens.
func (r *SessionRegistry) Issue(username, password string) (string, error) {
	if !r.credentialsMatch(username, password) {
		return "", ErrInvalidCredentials
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		token, err := r.mintToken()
		if err != nil {
			return "", err
		}
		if _, taken := r.active[token]; taken {
			continue
		}
		r.active[token] = struct{}{}
		return token, nil
	}
}

func (r *SessionRegistry) credentialsMatch(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(r.username)) == 1

	var passOK bool
	if r.passwordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(r.passwordHash), []byte(password)) == nil
	} else if r.password != "" {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(r.password)) == 1
	}

	return userOK && passOK
}

func (r *SessionRegistry) mintToken() (string, error) {
	jti := make([]byte, 16)
	if _, err := rand.Read(jti); err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"jti":  hex.EncodeToString(jti),
		"iat":  time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// Validate reports whether token is currently active.
func (r *SessionRegistry) Validate(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.active[token]
	return ok
}

// Revoke removes token from the active set. Revoking an unknown or already
// revoked token is a no-op.
func (r *SessionRegistry) Revoke(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active, token)
}

// Username returns the configured admin username for response shaping.
func (r *SessionRegistry) Username() string {
	return r.username
}
