package session

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/spauthd/samlchain/internal/core/domain"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestCookieSessionStore_Roundtrip(t *testing.T) {
	store := NewCookieSessionStore(testKey(t), time.Hour)

	session := &domain.Session{
		Subject:      "alice@example.com",
		IdPEntityID:  "https://idp.example.com",
		NameIDFormat: "urn:oasis:names:tc:SAML:2.0:nameid-format:persistent",
		SessionIndex: "idx-123",
		Attributes:   map[string]string{"displayName": "Alice", "mail": "alice@example.com"},
	}

	token, err := store.Create(session)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Subject != session.Subject {
		t.Errorf("Subject = %q, want %q", got.Subject, session.Subject)
	}
	if got.IdPEntityID != session.IdPEntityID {
		t.Errorf("IdPEntityID = %q, want %q", got.IdPEntityID, session.IdPEntityID)
	}
	if got.SessionIndex != session.SessionIndex {
		t.Errorf("SessionIndex = %q, want %q", got.SessionIndex, session.SessionIndex)
	}
	if got.Attributes["displayName"] != "Alice" {
		t.Errorf("Attributes = %v", got.Attributes)
	}
	if got.ExpiresAt.Before(time.Now()) {
		t.Error("session should not be expired")
	}
}

func TestCookieSessionStore_Expired(t *testing.T) {
	store := NewCookieSessionStore(testKey(t), -time.Minute)

	token, err := store.Create(&domain.Session{Subject: "bob"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Get(token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get expired = %v, want ErrSessionNotFound", err)
	}
}

func TestCookieSessionStore_WrongKey(t *testing.T) {
	store := NewCookieSessionStore(testKey(t), time.Hour)
	other := NewCookieSessionStore(testKey(t), time.Hour)

	token, err := store.Create(&domain.Session{Subject: "carol"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := other.Get(token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get with wrong key = %v, want ErrSessionNotFound", err)
	}
}

func TestCookieSessionStore_Garbage(t *testing.T) {
	store := NewCookieSessionStore(testKey(t), time.Hour)
	if _, err := store.Get("not.a.jwt"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Get garbage = %v, want ErrSessionNotFound", err)
	}
}
