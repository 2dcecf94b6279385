// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/justingallivan/reviewer-engine/internal/httputil"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// TierSearchAPI labels contact info found through the search engine API.
const TierSearchAPI = "search_api"

// searchAPIBase is the SerpAPI endpoint. Package-level var for test
// substitution.
var searchAPIBase = "https://serpapi.com/search.json"

// SearchAPITier queries a search engine API for the candidate's contact
// page as a last resort. It scans result snippets for an email and
// takes the top organic hit as the website.
type SearchAPITier struct {
	Client *http.Client
	APIKey string

	cost float64
}

func (t *SearchAPITier) Name() string  { return TierSearchAPI }
func (t *SearchAPITier) Cost() float64 { return t.cost }

type serpResponse struct {
	OrganicResults []serpResult `json:"organic_results"`
}

type serpResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Lookup runs one search for "<name> <affiliation> email".
func (t *SearchAPITier) Lookup(ctx context.Context, candidate types.Candidate) (types.ContactInfo, error) {
	terms := []string{candidate.Name}
	if candidate.Affiliation != "" {
		terms = append(terms, candidate.Affiliation)
	}
	terms = append(terms, "email")

	q := url.Values{}
	q.Set("q", strings.Join(terms, " "))
	q.Set("num", "10")
	q.Set("api_key", t.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchAPIBase+"?"+q.Encode(), nil)
	if err != nil {
		return types.ContactInfo{}, fmt.Errorf("creating request: %w", err)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return types.ContactInfo{}, fmt.Errorf("querying search API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.ContactInfo{}, fmt.Errorf("search API returned %d", resp.StatusCode)
	}

	var parsed serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return types.ContactInfo{}, fmt.Errorf("decoding search response: %w", err)
	}

	var info types.ContactInfo
	lastName := lastNameOf(candidate.Name)
	for _, r := range parsed.OrganicResults {
		if info.Website == "" && r.Link != "" {
			info.Website = r.Link
		}
		if info.Email != "" {
			continue
		}
		for _, email := range emailRe.FindAllString(r.Snippet, -1) {
			email = strings.TrimRight(email, ".")
			if lastName == "" || strings.Contains(strings.ToLower(email), lastName) {
				info.Email = email
				info.EmailSource = TierSearchAPI
				break
			}
		}
	}
	return info, nil
}
