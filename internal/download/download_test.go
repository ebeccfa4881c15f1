package download

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type failingTransport struct{ t *testing.T }

func (ft failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	ft.t.Fatal("network request issued for a skipped download")
	return nil, nil
}

func TestDownloadSkipIfExistsNeverHitsNetwork(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "01-Intro.mp4")
	require.NoError(t, os.WriteFile(dest, []byte("previous run"), 0644))

	d := New(&http.Client{Transport: failingTransport{t}}, 1024, zerolog.Nop())

	outcome, err := d.Download("https://cdn.example.com/v.mp4", dest, true)
	require.NoError(t, err)
	require.Equal(t, Skipped, outcome)

	// File untouched.
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "previous run", string(data))
}

func TestDownloadStreamsBodyToDisk(t *testing.T) {
	body := strings.Repeat("cgcookie", 700) // a few chunks worth
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "course title", "02-Lesson.mp4") // parent must be created

	d := New(server.Client(), 1024, zerolog.Nop())
	outcome, err := d.Download(server.URL, dest, true)
	require.NoError(t, err)
	require.Equal(t, Downloaded, outcome)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, body, string(data))

	// No leftover partial file.
	_, err = os.Stat(dest + ".part")
	require.True(t, os.IsNotExist(err))
}

func TestDownloadOverwritesWhenSkipDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "fresh bytes")
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "lesson.mp4")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0644))

	d := New(server.Client(), 1024, zerolog.Nop())
	outcome, err := d.Download(server.URL, dest, false)
	require.NoError(t, err)
	require.Equal(t, Downloaded, outcome)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "fresh bytes", string(data))
}

func TestDownloadErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "lesson.mp4")

	d := New(server.Client(), 1024, zerolog.Nop())
	_, err := d.Download(server.URL, dest, true)
	require.Error(t, err)

	// Neither the file nor a partial should exist.
	_, err = os.Stat(dest)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(dest + ".part")
	require.True(t, os.IsNotExist(err))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	d := New(http.DefaultClient, 1024, zerolog.Nop())

	require.False(t, d.Exists(filepath.Join(dir, "nope.mp4")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "yes.mp4"), []byte("x"), 0644))
	require.True(t, d.Exists(filepath.Join(dir, "yes.mp4")))

	// Directories do not count.
	require.False(t, d.Exists(dir))
}
