package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type courseMeta struct {
	Title   string   `json:"title"`
	Lessons []string `json:"lessons"`
}

func TestCacheSetGetRoundTrip(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)

	want := courseMeta{Title: "Shading Basics", Lessons: []string{"Intro", "Nodes"}}
	require.NoError(t, c.Set("course_shading-basics", want))

	var got courseMeta
	found, err := c.Get("course_shading-basics", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, want, got)
}

func TestCacheGetMissingKey(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)

	var got courseMeta
	found, err := c.Get("course_never-written", &got)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCacheKeyRouting(t *testing.T) {
	root := t.TempDir()
	c, err := NewCache(root)
	require.NoError(t, err)

	require.NoError(t, c.Set("course_foo", "meta"))
	require.NoError(t, c.Set("completed_foo", []string{"lesson-1"}))

	_, err = os.Stat(filepath.Join(root, ".cache", "courses", "course_foo.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, ".cache", "state", "completed_foo.json"))
	require.NoError(t, err)
}

func TestCacheKeySanitized(t *testing.T) {
	root := t.TempDir()
	c, err := NewCache(root)
	require.NoError(t, err)

	require.NoError(t, c.Set("course_a/b", "x"))

	var got string
	found, err := c.Get("course_a/b", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "x", got)

	_, err = os.Stat(filepath.Join(root, ".cache", "courses", "course_a_b.json"))
	require.NoError(t, err)
}

func TestCacheIsStale(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)

	require.True(t, c.IsStale("course_missing", time.Hour))

	require.NoError(t, c.Set("course_fresh", "x"))
	require.False(t, c.IsStale("course_fresh", time.Hour))
	require.True(t, c.IsStale("course_fresh", 0))
}

func TestCacheClear(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("course_gone", "x"))
	require.NoError(t, c.Clear())

	var got string
	found, err := c.Get("course_gone", &got)
	require.NoError(t, err)
	require.False(t, found)

	// directories are recreated so new writes still work
	require.NoError(t, c.Set("course_back", "y"))
}
