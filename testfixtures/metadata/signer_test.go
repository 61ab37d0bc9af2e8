package metadata

import (
	"strings"
	"testing"
	"time"

	internalmd "github.com/spauthd/samlchain/internal/adapters/driven/metadata"
)

func TestSigner_IdPMetadata(t *testing.T) {
	signer := New(t)

	doc, err := signer.IdPMetadata("https://idp.example.org/metadata")
	if err != nil {
		t.Fatalf("IdPMetadata failed: %v", err)
	}
	out := string(doc)
	if !strings.Contains(out, "https://idp.example.org/metadata") {
		t.Errorf("metadata missing entity ID:\n%s", out)
	}
	if !strings.Contains(out, "Signature") {
		t.Errorf("metadata is not signed:\n%s", out)
	}
}

func TestSigner_OutputParses(t *testing.T) {
	signer := New(t)

	doc, err := signer.IdPMetadata("https://idp.example.org/metadata")
	if err != nil {
		t.Fatalf("IdPMetadata failed: %v", err)
	}

	idps, err := internalmd.ParseIdentityProviders(doc, time.Now())
	if err != nil {
		t.Fatalf("signed metadata does not parse: %v", err)
	}
	if len(idps) != 1 {
		t.Fatalf("parsed %d identity providers, want 1", len(idps))
	}
	if idps[0].SSOURL == "" || len(idps[0].Certificates) == 0 {
		t.Errorf("parsed idp incomplete: %+v", idps[0])
	}
}

func TestSigner_AggregateMetadata(t *testing.T) {
	signer := New(t)

	doc, err := signer.AggregateMetadata([]string{
		"https://one.example.org/metadata",
		"https://two.example.org/metadata",
	})
	if err != nil {
		t.Fatalf("AggregateMetadata failed: %v", err)
	}

	idps, err := internalmd.ParseIdentityProviders(doc, time.Now())
	if err != nil {
		t.Fatalf("aggregate metadata does not parse: %v", err)
	}
	if len(idps) != 2 {
		t.Errorf("parsed %d identity providers, want 2", len(idps))
	}
}
