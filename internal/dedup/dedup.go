// Remember which listing URLs were already announced so the notifier does not
// repeat itself across passes. The CSV output is not affected.

package dedup

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type seenEntry struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"`
}

type JobCache struct {
	mu        sync.Mutex
	filePath  string
	retention time.Duration
	now       func() time.Time
	seen      map[string]int64
}

// NewJobCache creates or loads the cache in dir. Entries older than retention
// are dropped on load; retention <= 0 keeps everything.
func NewJobCache(dir string, retention time.Duration) *JobCache {
	return newJobCache(dir, retention, time.Now)
}

func newJobCache(dir string, retention time.Duration, now func() time.Time) *JobCache {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("⚠️ Failed to create cache directory: %v", err)
	}
	jc := &JobCache{
		filePath:  filepath.Join(dir, "seen_jobs.json"),
		retention: retention,
		now:       now,
		seen:      make(map[string]int64),
	}
	jc.load()
	return jc
}

// IsSeen checks if a URL has already been announced
func (jc *JobCache) IsSeen(url string) bool {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	_, exists := jc.seen[url]
	return exists
}

// Add marks urls as seen and saves the file when anything changed.
func (jc *JobCache) Add(urls []string) {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	now := jc.now().UnixMilli()
	changed := false
	for _, url := range urls {
		if _, exists := jc.seen[url]; !exists {
			jc.seen[url] = now
			changed = true
		}
	}

	if changed {
		jc.save()
	}
}

func (jc *JobCache) Len() int {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	return len(jc.seen)
}

// load reads the cache from disk into the in-memory map
func (jc *JobCache) load() {
	data, err := os.ReadFile(jc.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read seen_jobs.json: %v", err)
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("⚠️ Failed to parse seen_jobs.json: %v", err)
		return
	}

	cutoff := int64(0)
	if jc.retention > 0 {
		cutoff = jc.now().Add(-jc.retention).UnixMilli()
	}
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			jc.seen[e.URL] = e.Timestamp
			loaded++
		}
	}
	log.Printf("📋 Loaded %d previously seen jobs (%d expired and removed)", loaded, len(entries)-loaded)
}

// save writes the current cache to disk
func (jc *JobCache) save() {
	entries := make([]seenEntry, 0, len(jc.seen))
	for url, ts := range jc.seen {
		entries = append(entries, seenEntry{URL: url, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal seen jobs: %v", err)
		return
	}
	if err := os.WriteFile(jc.filePath, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write seen_jobs.json: %v", err)
	}
}
