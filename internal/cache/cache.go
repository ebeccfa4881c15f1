package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry wraps cached data with the time it was written so callers can
// decide whether a re-scrape is due.
type Entry struct {
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Cache is a small file-backed store under <root>/.cache. Course metadata
// lives in courses/, everything else (completed-lesson state) in state/.
type Cache struct {
	BasePath string
	mutex    sync.RWMutex
}

func NewCache(basePath string) (*Cache, error) {
	cachePath := filepath.Join(basePath, ".cache")
	for _, dir := range []string{"courses", "state"} {
		if err := os.MkdirAll(filepath.Join(cachePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory %s: %v", dir, err)
		}
	}

	return &Cache{BasePath: cachePath}, nil
}

func (c *Cache) subdirFor(key string) string {
	if strings.HasPrefix(key, "course_") {
		return "courses"
	}
	return "state"
}

func sanitizeKey(key string) string {
	key = strings.ReplaceAll(key, "/", "_")
	return strings.ReplaceAll(key, "\\", "_")
}

func (c *Cache) Set(key string, data interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key = sanitizeKey(key)
	dirPath := filepath.Join(c.BasePath, c.subdirFor(key))
	filePath := filepath.Join(dirPath, key+".json")

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to ensure cache directory: %v", err)
	}

	entry := Entry{
		Data:      data,
		Timestamp: time.Now(),
	}

	jsonData, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %v", err)
	}

	tmpFile := filePath + ".tmp"
	if err := os.WriteFile(tmpFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %v", err)
	}

	if err := os.Rename(tmpFile, filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to save cache file: %v", err)
	}

	return nil
}

// Get loads a cached value into data. The second return is false when the
// key has never been written.
func (c *Cache) Get(key string, data interface{}) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	key = sanitizeKey(key)
	filePath := filepath.Join(c.BasePath, c.subdirFor(key), key+".json")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return false, nil
	}

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to read cache file: %v", err)
	}

	var entry Entry
	if err := json.Unmarshal(jsonData, &entry); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %v", err)
	}

	jsonData, err = json.Marshal(entry.Data)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cached data: %v", err)
	}

	if err := json.Unmarshal(jsonData, data); err != nil {
		return false, fmt.Errorf("failed to unmarshal into target type: %v", err)
	}

	return true, nil
}

// IsStale reports whether a key is missing, unreadable, or older than maxAge.
func (c *Cache) IsStale(key string, maxAge time.Duration) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	key = sanitizeKey(key)
	filePath := filepath.Join(c.BasePath, c.subdirFor(key), key+".json")

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return true
	}

	var entry Entry
	if err := json.Unmarshal(jsonData, &entry); err != nil {
		return true
	}

	return time.Since(entry.Timestamp) > maxAge
}

func (c *Cache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := os.RemoveAll(c.BasePath); err != nil {
		return fmt.Errorf("failed to clear cache: %v", err)
	}

	for _, dir := range []string{"courses", "state"} {
		if err := os.MkdirAll(filepath.Join(c.BasePath, dir), 0755); err != nil {
			return fmt.Errorf("failed to recreate cache directory %s: %v", dir, err)
		}
	}

	return nil
}
