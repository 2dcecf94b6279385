// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/justingallivan/reviewer-engine/internal/httputil"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// biorxivAPIBase is the bioRxiv/medRxiv content API endpoint. Declared as
// a var so tests can substitute an httptest server.
var biorxivAPIBase = "https://api.biorxiv.org/fulltext"

// BioRxivSource queries the bioRxiv preprint server.
type BioRxivSource struct {
	Client *http.Client
}

// Name returns the source identifier.
func (s *BioRxivSource) Name() string { return "biorxiv" }

// Search queries the bioRxiv API and returns normalized records.
func (s *BioRxivSource) Search(ctx context.Context, query Query, cfg types.SourcesConfig) ([]types.PublicationRecord, error) {
	terms := biorxivTerms(query)
	if terms == "" {
		return nil, fmt.Errorf("empty bioRxiv query")
	}

	if err := throttleFor(s.Name()).Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"server": {"biorxiv"},
		"terms":  {terms},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, biorxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("bioRxiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bioRxiv API returned HTTP %d", resp.StatusCode)
	}

	var br biorxivResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing bioRxiv response: %w", err)
	}

	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 25
	}

	var records []types.PublicationRecord
	for i, entry := range br.Collection {
		if i >= maxRecords {
			break
		}
		r := types.PublicationRecord{
			SourceID: entry.DOI,
			Source:   "biorxiv",
			Title:    strings.TrimSpace(entry.Title),
			Abstract: strings.TrimSpace(entry.Abstract),
			Venue:    "bioRxiv",
			Authors:  splitRxivAuthors(entry.Authors),
			URL:      "https://www.biorxiv.org/content/" + entry.DOI,
		}
		if inst := strings.TrimSpace(entry.CorrespondingInstitution); inst != "" {
			r.Affiliations = append(r.Affiliations, inst)
		}
		if t, parseErr := time.Parse("2006-01-02", entry.Date); parseErr == nil {
			r.Date = t
			r.Year = t.Year()
		}
		records = append(records, r)
	}
	return records, nil
}

// biorxivTerms renders the query for the terms parameter. The API has no
// dedicated author field, so person names are passed as phrase terms and
// matched against returned author lists by the caller.
func biorxivTerms(q Query) string {
	if q.Name != "" {
		return strings.Join(strings.Fields(q.Name), " ")
	}
	return strings.Join(q.Keywords, " ")
}

// splitRxivAuthors splits the semicolon-separated "Last, F.; Last, F."
// author string the Rxiv servers return into "F. Last" names.
func splitRxivAuthors(authors string) []string {
	var names []string
	for _, part := range strings.Split(authors, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if comma := strings.Index(part, ","); comma >= 0 {
			last := strings.TrimSpace(part[:comma])
			given := strings.TrimSpace(part[comma+1:])
			if given != "" {
				names = append(names, given+" "+last)
				continue
			}
			names = append(names, last)
			continue
		}
		names = append(names, part)
	}
	return names
}

// bioRxiv API JSON structures.
type biorxivResponse struct {
	Collection []biorxivEntry `json:"collection"`
}

type biorxivEntry struct {
	DOI                      string `json:"doi"`
	Title                    string `json:"title"`
	Authors                  string `json:"authors"`
	CorrespondingInstitution string `json:"author_corresponding_institution"`
	Date                     string `json:"date"`
	Abstract                 string `json:"abstract"`
}
