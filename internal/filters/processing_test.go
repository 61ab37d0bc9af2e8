package filters

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spauthd/samlchain/internal/core/domain"
)

func TestProcessingFilter_Matches(t *testing.T) {
	f := NewProcessingFilter(testPrefix, &fakeResolver{}, &fakeTransformer{}, zap.NewNop())

	cases := []struct {
		path string
		want bool
	}{
		{"/saml/sp", true},
		{"/saml/sp/metadata", true},
		{"/saml/sp/SSO", true},
		{"/app", false},
		{"/saml/spx", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if got := f.Matches(r); got != tc.want {
			t.Errorf("Matches(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestProcessingFilter_AttachesProviderAndMessage(t *testing.T) {
	hp := testHostedProvider(t)
	msg := &domain.Message{Kind: domain.MessageResponse, Issuer: "https://idp.example.org/metadata"}
	f := NewProcessingFilter(testPrefix, &fakeResolver{hp: hp}, &fakeTransformer{decodeMsg: msg}, zap.NewNop())

	next := &terminal{}
	r := httptest.NewRequest(http.MethodGet, "/saml/sp/SSO", nil)
	if err := f.ServeHTTP(httptest.NewRecorder(), r, next); err != nil {
		t.Fatalf("ServeHTTP failed: %v", err)
	}
	if !next.called {
		t.Fatal("next handler was not invoked")
	}
	if HostedProviderFrom(next.req.Context()) != hp {
		t.Error("hosted provider not attached to context")
	}
	if MessageFrom(next.req.Context()) != msg {
		t.Error("message not attached to context")
	}
}

func TestProcessingFilter_NoMessageIsFine(t *testing.T) {
	f := NewProcessingFilter(testPrefix, &fakeResolver{hp: testHostedProvider(t)}, &fakeTransformer{}, zap.NewNop())

	next := &terminal{}
	r := httptest.NewRequest(http.MethodGet, "/saml/sp/select", nil)
	if err := f.ServeHTTP(httptest.NewRecorder(), r, next); err != nil {
		t.Fatalf("ServeHTTP failed: %v", err)
	}
	if MessageFrom(next.req.Context()) != nil {
		t.Error("unexpected message in context")
	}
}

func TestProcessingFilter_ResolutionFailure(t *testing.T) {
	cause := fmt.Errorf("metadata fetch failed")
	f := NewProcessingFilter(testPrefix, &fakeResolver{err: cause}, &fakeTransformer{}, zap.NewNop())

	next := &terminal{}
	err := f.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/saml/sp/select", nil), next)

	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeServiceError {
		t.Fatalf("error = %v, want service error", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
	if next.called {
		t.Error("next handler invoked after resolution failure")
	}
}

func TestProcessingFilter_DecodeFailure(t *testing.T) {
	f := NewProcessingFilter(testPrefix,
		&fakeResolver{hp: testHostedProvider(t)},
		&fakeTransformer{decodeErr: fmt.Errorf("bad base64")},
		zap.NewNop())

	err := f.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/saml/sp/SSO", nil), &terminal{})

	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Code != domain.ErrCodeBadRequest {
		t.Fatalf("error = %v, want bad request", err)
	}
}
