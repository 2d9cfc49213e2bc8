package hovercard

import "sync"

// SummaryRecord is what the tooltip shows for one document. Exactly one of Loading,
// Summary and Error is active.
type SummaryRecord struct {
	Filename string
	DocType  string
	Summary  string
	Error    string
	Cached   bool
	Loading  bool
}

// loadingRecord returns the placeholder shown while a summary is fetched.
func loadingRecord(filename, docType string) SummaryRecord {
	return SummaryRecord{Filename: filename, DocType: docType, Loading: true}
}

// SummaryCache holds successful summaries for the lifetime of the Runtime, keyed by
// document URL. Records are replaced wholesale, never edited. Failures are never stored.
type SummaryCache struct {
	mu      sync.RWMutex
	records map[string]SummaryRecord
}

// NewSummaryCache creates an empty cache.
func NewSummaryCache() *SummaryCache {
	return &SummaryCache{records: make(map[string]SummaryRecord)}
}

// Get returns the record for url.
func (c *SummaryCache) Get(url string) (SummaryRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[url]
	return rec, ok
}

// Put stores a successful record for url. Loading and error records are ignored.
func (c *SummaryCache) Put(url string, rec SummaryRecord) bool {
	if rec.Loading || rec.Error != "" {
		return false
	}
	c.mu.Lock()
	c.records[url] = rec
	c.mu.Unlock()
	return true
}

// Len returns the number of cached summaries.
func (c *SummaryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Clear drops every record.
func (c *SummaryCache) Clear() {
	c.mu.Lock()
	c.records = make(map[string]SummaryRecord)
	c.mu.Unlock()
}
