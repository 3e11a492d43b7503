// Package store keeps the JSON corpus of scraped records and decides which
// candidates still need scraping.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"AUScraper/internal/logger"
	"AUScraper/internal/models"
)

// Store is the corpus file at Path.
type Store struct {
	Path string
}

func New(path string) *Store {
	return &Store{Path: path}
}

// Load reads the corpus. A missing file is an empty corpus. An unreadable or
// malformed file also yields an empty corpus, together with the error.
func (s *Store) Load() (models.Corpus, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Corpus{}, nil
	}
	if err != nil {
		return models.Corpus{}, fmt.Errorf("failed to read corpus %s: %w", s.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Corpus{}, nil
	}

	var corpus models.Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return models.Corpus{}, fmt.Errorf("failed to parse corpus %s: %w", s.Path, err)
	}
	return corpus, nil
}

// Persist writes corpus atomically: readers see either the previous file or
// the complete new one.
func (s *Store) Persist(corpus models.Corpus) error {
	data, err := Encode(corpus)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}
	if err := writeAtomic(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus %s: %w", s.Path, err)
	}
	logger.Info("corpus written",
		"path", s.Path,
		"records", len(corpus),
		"size", humanize.Bytes(uint64(len(data))))
	return nil
}

// Encode renders corpus as 2-space indented JSON with no HTML escaping.
func Encode(corpus models.Corpus) ([]byte, error) {
	if corpus == nil {
		corpus = models.Corpus{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(corpus.Normalize()); err != nil {
		return nil, fmt.Errorf("failed to encode corpus: %w", err)
	}
	return buf.Bytes(), nil
}

// Merge appends fresh records to existing. Existing records are never
// modified or removed.
func Merge(existing models.Corpus, fresh []models.DetailRecord) models.Corpus {
	out := make(models.Corpus, 0, len(existing)+len(fresh))
	out = append(out, existing...)
	return append(out, fresh...)
}

// Index holds the identity keys of a corpus.
type Index struct {
	urls   map[string]struct{}
	titles map[string]struct{}
}

// NewIndex indexes every record of corpus by URL and normalized title.
func NewIndex(corpus models.Corpus) *Index {
	ix := &Index{
		urls:   make(map[string]struct{}, len(corpus)),
		titles: make(map[string]struct{}, len(corpus)),
	}
	for _, r := range corpus {
		ix.add(r.URL, r.Title)
	}
	return ix
}

func (ix *Index) add(url, title string) {
	if url != "" {
		ix.urls[url] = struct{}{}
	}
	if key := models.NormalizeTitle(title); key != "" {
		ix.titles[key] = struct{}{}
	}
}

// Skip reasons reported by Admit.
const (
	ReasonURL    = "url"
	ReasonTitle  = "title"
	ReasonRepeat = "repeat"
)

// Admit reports whether c is new. Admitted candidates are added to the index,
// so later duplicates in the same pass are rejected.
func (ix *Index) Admit(c models.Candidate) (bool, string) {
	key := c.TitleKey()
	if _, ok := ix.urls[c.URL]; ok {
		return false, ReasonURL
	}
	if _, ok := ix.titles[key]; ok && key != "" {
		return false, ReasonTitle
	}
	if strings.Contains(key, "repeat") {
		return false, ReasonRepeat
	}
	ix.add(c.URL, c.Title)
	return true, ""
}

// FilterNew returns the candidates not already in corpus, in input order.
func FilterNew(cands []models.Candidate, corpus models.Corpus) []models.Candidate {
	ix := NewIndex(corpus)
	skipped := map[string]int{}
	out := make([]models.Candidate, 0, len(cands))
	for _, c := range cands {
		ok, reason := ix.Admit(c)
		if !ok {
			skipped[reason]++
			continue
		}
		out = append(out, c)
	}
	logger.Debug("filtered candidates",
		"in", len(cands),
		"out", len(out),
		"known_url", skipped[ReasonURL],
		"known_title", skipped[ReasonTitle],
		"repeat", skipped[ReasonRepeat])
	return out
}
