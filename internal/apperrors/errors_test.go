package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrAuthIs(t *testing.T) {
	err := fmt.Errorf("login: %w", NewAuthError("marker never appeared"))
	if !errors.Is(err, &ErrAuth{}) {
		t.Fatal("expected wrapped ErrAuth to match errors.Is")
	}
	if errors.Is(err, &ErrAPI{}) {
		t.Fatal("ErrAuth should not match ErrAPI")
	}
}

func TestErrScrapeTimeoutMessage(t *testing.T) {
	err := NewScrapeTimeoutError("#course-list-accordion", "https://cgcookie.com/courses/x")
	want := `timed out waiting for "#course-list-accordion" on https://cgcookie.com/courses/x`
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}

	noURL := NewScrapeTimeoutError(".wistia_embed", "")
	if noURL.Error() != `timed out waiting for ".wistia_embed"` {
		t.Fatalf("unexpected message: %q", noURL.Error())
	}
}

func TestErrAPIVariants(t *testing.T) {
	status := NewAPIStatusError("https://fast.wistia.net/embed/medias/abc.json", 503)
	if status.Error() != "asset API returned status 503 for https://fast.wistia.net/embed/medias/abc.json" {
		t.Fatalf("unexpected message: %q", status.Error())
	}

	malformed := NewAPIError("https://fast.wistia.net/embed/medias/abc.json", "no assets in response")
	if !errors.Is(malformed, &ErrAPI{}) {
		t.Fatal("expected ErrAPI to match errors.Is")
	}
}
