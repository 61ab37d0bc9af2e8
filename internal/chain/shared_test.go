package chain

import (
	"errors"
	"testing"
)

func TestSharedObjects_SetFirstWins(t *testing.T) {
	s := NewSharedObjects()
	s.Set("key", "first")
	s.Set("key", "second")

	if got := s.Get("key"); got != "first" {
		t.Errorf("Get = %v, want %q", got, "first")
	}
}

func TestSharedObjects_GetMissing(t *testing.T) {
	s := NewSharedObjects()
	if got := s.Get("missing"); got != nil {
		t.Errorf("Get = %v, want nil", got)
	}
}

func TestSharedAs_TypeMismatch(t *testing.T) {
	s := NewSharedObjects()
	s.Set("key", 42)

	if _, ok := SharedAs[string](s, "key"); ok {
		t.Error("SharedAs[string] should fail for an int value")
	}
	if v, ok := SharedAs[int](s, "key"); !ok || v != 42 {
		t.Errorf("SharedAs[int] = %v, %v; want 42, true", v, ok)
	}
}

func TestResolveShared_ExplicitWins(t *testing.T) {
	s := NewSharedObjects()
	s.Set("key", "registry")

	got, err := ResolveShared(s, "key", "explicit", func() (string, error) {
		t.Fatal("creator must not run when an explicit instance is given")
		return "", nil
	})
	if err != nil {
		t.Fatalf("ResolveShared failed: %v", err)
	}
	if got != "explicit" {
		t.Errorf("resolved = %q, want %q", got, "explicit")
	}
}

func TestResolveShared_RegistryBeatsDefault(t *testing.T) {
	s := NewSharedObjects()
	s.Set("key", "registry")

	got, err := ResolveShared(s, "key", "", func() (string, error) {
		t.Fatal("creator must not run when the registry has an entry")
		return "", nil
	})
	if err != nil {
		t.Fatalf("ResolveShared failed: %v", err)
	}
	if got != "registry" {
		t.Errorf("resolved = %q, want %q", got, "registry")
	}
}

func TestResolveShared_DefaultCreatedAndPublished(t *testing.T) {
	s := NewSharedObjects()

	got, err := ResolveShared(s, "key", "", func() (string, error) {
		return "default", nil
	})
	if err != nil {
		t.Fatalf("ResolveShared failed: %v", err)
	}
	if got != "default" {
		t.Errorf("resolved = %q, want %q", got, "default")
	}
	// The created default must be visible to later configurers.
	if published := s.Get("key"); published != "default" {
		t.Errorf("published = %v, want %q", published, "default")
	}
}

func TestResolveShared_CreatorError(t *testing.T) {
	s := NewSharedObjects()
	wantErr := errors.New("no implementation")

	_, err := ResolveShared(s, "key", "", func() (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	if s.Get("key") != nil {
		t.Error("nothing should be published after a creator error")
	}
}

func TestResolveShared_NilCreatorIsOptional(t *testing.T) {
	s := NewSharedObjects()

	got, err := ResolveShared[string](s, "key", "", nil)
	if err != nil {
		t.Fatalf("ResolveShared failed: %v", err)
	}
	if got != "" {
		t.Errorf("resolved = %q, want empty", got)
	}
	if s.Get("key") != nil {
		t.Error("optional miss must not publish a zero value")
	}
}

func TestResolveShared_ExplicitIsPublished(t *testing.T) {
	s := NewSharedObjects()

	if _, err := ResolveShared(s, "key", "explicit", nil); err != nil {
		t.Fatalf("ResolveShared failed: %v", err)
	}
	if got := s.Get("key"); got != "explicit" {
		t.Errorf("published = %v, want %q", got, "explicit")
	}
}
