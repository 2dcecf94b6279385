// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/justingallivan/reviewer-engine/internal/httputil"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// chemrxivAPIBase is the ChemRxiv public API items endpoint. Declared as
// a var so tests can substitute an httptest server.
var chemrxivAPIBase = "https://chemrxiv.org/engage/chemrxiv/public-api/v1/items"

// ChemRxivSource queries the ChemRxiv preprint server.
type ChemRxivSource struct {
	Client *http.Client
}

// Name returns the source identifier.
func (s *ChemRxivSource) Name() string { return "chemrxiv" }

// Search queries the ChemRxiv API and returns normalized records.
func (s *ChemRxivSource) Search(ctx context.Context, query Query, cfg types.SourcesConfig) ([]types.PublicationRecord, error) {
	term := chemrxivTerm(query)
	if term == "" {
		return nil, fmt.Errorf("empty ChemRxiv query")
	}

	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 25
	}

	if err := throttleFor(s.Name()).Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"term":  {term},
		"limit": {strconv.Itoa(maxRecords)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, chemrxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("ChemRxiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ChemRxiv API returned HTTP %d", resp.StatusCode)
	}

	var cr chemrxivResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing ChemRxiv response: %w", err)
	}

	var records []types.PublicationRecord
	for _, hit := range cr.ItemHits {
		item := hit.Item
		r := types.PublicationRecord{
			SourceID: item.DOI,
			Source:   "chemrxiv",
			Title:    strings.TrimSpace(item.Title),
			Abstract: strings.TrimSpace(item.Abstract),
			Venue:    "ChemRxiv",
			URL:      "https://doi.org/" + item.DOI,
		}
		if r.SourceID == "" {
			r.SourceID = item.ID
		}
		for _, a := range item.Authors {
			name := strings.TrimSpace(a.FirstName + " " + a.LastName)
			if name == "" {
				continue
			}
			r.Authors = append(r.Authors, name)
			for _, inst := range a.Institutions {
				if inst.Name != "" {
					r.Affiliations = append(r.Affiliations, inst.Name)
				}
			}
		}
		if t, parseErr := time.Parse(time.RFC3339, item.PublishedDate); parseErr == nil {
			r.Date = t
			r.Year = t.Year()
		}
		records = append(records, r)
	}
	return records, nil
}

// chemrxivTerm renders the free-text term parameter.
func chemrxivTerm(q Query) string {
	if q.Name != "" {
		return strings.Join(strings.Fields(q.Name), " ")
	}
	return strings.Join(q.Keywords, " ")
}

// ChemRxiv API JSON structures.
type chemrxivResponse struct {
	TotalCount int           `json:"totalCount"`
	ItemHits   []chemrxivHit `json:"itemHits"`
}

type chemrxivHit struct {
	Item chemrxivItem `json:"item"`
}

type chemrxivItem struct {
	ID            string           `json:"id"`
	DOI           string           `json:"doi"`
	Title         string           `json:"title"`
	Abstract      string           `json:"abstract"`
	PublishedDate string           `json:"publishedDate"`
	Authors       []chemrxivAuthor `json:"authors"`
}

type chemrxivAuthor struct {
	FirstName    string                `json:"firstName"`
	LastName     string                `json:"lastName"`
	Institutions []chemrxivInstitution `json:"institutions"`
}

type chemrxivInstitution struct {
	Name string `json:"name"`
}
