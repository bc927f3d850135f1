package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Token is the persisted OAuth token record. It is overwritten wholesale on
// every successful auth or refresh, never partially mutated.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int       `json:"expires_in"`
	ObtainedAt   time.Time `json:"obtained_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the token's lifetime has elapsed. Tokens without
// expiry metadata (e.g. set directly via setup_auth) never report expired.
func (t *Token) Expired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(t.ExpiresAt)
}

// TokenStore persists a single token record to a local JSON file.
type TokenStore struct {
	path string
	log  *logrus.Logger
}

func NewTokenStore(path string, log *logrus.Logger) *TokenStore {
	return &TokenStore{path: path, log: log}
}

// Load reads the stored token. Returns nil when the file is absent or
// unparsable; a broken file is logged, not fatal, since the user can simply
// authenticate again.
func (s *TokenStore) Load() *Token {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warnf("could not read token file %s", s.path)
		}
		return nil
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		s.log.WithError(err).Warnf("could not parse token file %s", s.path)
		return nil
	}
	if tok.AccessToken == "" {
		s.log.Warnf("token file %s has no access token", s.path)
		return nil
	}
	return &tok
}

// Save writes the token atomically: temp file in the same directory, fsync,
// then rename. Concurrent readers never see a partial file. ExpiresAt is
// recomputed from ObtainedAt + ExpiresIn before writing.
func (s *TokenStore) Save(tok *Token) error {
	if tok.ObtainedAt.IsZero() {
		tok.ObtainedAt = time.Now()
	}
	if tok.ExpiresIn > 0 {
		tok.ExpiresAt = tok.ObtainedAt.Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	tempFile := s.path + ".tmp"
	f, err := os.OpenFile(tempFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tok); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.path)
}
