// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package biblio queries bibliographic databases (PubMed, arXiv, bioRxiv,
// ChemRxiv) behind a uniform Source interface and returns normalized
// publication records. Sources fail independently: a timeout or error from
// one never aborts the others, and the caller receives whatever the
// surviving sources found plus a degraded-source warning per failure.
package biblio

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/justingallivan/reviewer-engine/internal/httputil"
	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// Source searches a single bibliographic database. Each adapter (PubMed,
// arXiv, bioRxiv, ChemRxiv) implements this interface per the Strategy
// pattern.
type Source interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SourcesConfig) ([]types.PublicationRecord, error)
}

// Query holds search parameters. When Name is set the query looks for a
// person's publications, with Affiliation and Keywords as optional
// disambiguation hints; when Name is empty the Keywords are a
// subject-matter search used for database discovery.
type Query struct {
	Name        string
	Affiliation string
	Keywords    []string
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return q.Name == "" && len(q.Keywords) == 0
}

// Per-source throttles, shared by every discovery run in the process.
// Public endpoint ceilings: PubMed allows 3 req/s without an API key
// (10 req/s with one); the preprint servers ask for about 1 req/s.
var (
	throttleMu sync.Mutex
	throttles  = map[string]*httputil.Throttle{}

	defaultIntervals = map[string]time.Duration{
		"pubmed":   334 * time.Millisecond,
		"arxiv":    time.Second,
		"biorxiv":  time.Second,
		"chemrxiv": time.Second,
	}
)

// throttleFor returns the process-wide throttle for a source name.
func throttleFor(name string) *httputil.Throttle {
	throttleMu.Lock()
	defer throttleMu.Unlock()
	th, ok := throttles[name]
	if !ok {
		th = httputil.NewThrottle(defaultIntervals[name])
		throttles[name] = th
	}
	return th
}

// EnabledSources constructs the adapters the configuration enables.
func EnabledSources(cfg types.SourcesConfig, client *http.Client) []Source {
	var sources []Source
	if cfg.EnablePubMed {
		sources = append(sources, &PubMedSource{Client: client})
	}
	if cfg.EnableArxiv {
		sources = append(sources, &ArxivSource{Client: client})
	}
	if cfg.EnableBioRxiv {
		sources = append(sources, &BioRxivSource{Client: client})
	}
	if cfg.EnableChemRxiv {
		sources = append(sources, &ChemRxivSource{Client: client})
	}
	return sources
}

// SearchAll fans the query out to all sources concurrently, merges and
// deduplicates the records, and returns them with one warning string per
// failed source. A failed source contributes zero records, never an error.
func SearchAll(ctx context.Context, query Query, sources []Source, cfg types.SourcesConfig) ([]types.PublicationRecord, []string) {
	if query.IsEmpty() || len(sources) == 0 {
		return nil, nil
	}

	type sourceResult struct {
		records []types.PublicationRecord
		err     error
		name    string
	}

	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for _, s := range sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			records, err := s.Search(ctx, query, cfg)
			ch <- sourceResult{records: records, err: err, name: s.Name()}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.PublicationRecord
	var warnings []string
	for sr := range ch {
		if sr.err != nil {
			warnings = append(warnings, fmt.Sprintf("source %s degraded: %v", sr.name, sr.err))
			continue
		}
		all = append(all, sr.records...)
	}
	sort.Strings(warnings)

	return deduplicate(all), warnings
}

// FilterByAuthor keeps the records that list the named person as an
// author, matching across the name formats the databases use.
func FilterByAuthor(records []types.PublicationRecord, name string) []types.PublicationRecord {
	var matched []types.PublicationRecord
	for _, r := range records {
		for _, author := range r.Authors {
			if identity.SameName(author, name) {
				matched = append(matched, r)
				break
			}
		}
	}
	return matched
}

// deduplicate merges records that share a source identifier or a
// normalized title. Empty fields of the surviving record are filled from
// the duplicate.
func deduplicate(records []types.PublicationRecord) []types.PublicationRecord {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.PublicationRecord

	for _, r := range records {
		key := ""
		if r.SourceID != "" {
			key = "id:" + r.Source + ":" + r.SourceID
		}
		titleKey := "title:" + normalizeTitle(r.Title)

		if idx, ok := seen[key]; key != "" && ok {
			mergeInto(&deduped[idx], r)
			continue
		}
		if idx, ok := seen[titleKey]; titleKey != "title:" && ok {
			mergeInto(&deduped[idx], r)
			continue
		}

		idx := len(deduped)
		deduped = append(deduped, r)
		if key != "" {
			seen[key] = idx
		}
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped
}

// mergeInto fills empty fields of dst from src.
func mergeInto(dst *types.PublicationRecord, src types.PublicationRecord) {
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.Date.IsZero() {
		dst.Date = src.Date
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	dst.Affiliations = append(dst.Affiliations, src.Affiliations...)
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
