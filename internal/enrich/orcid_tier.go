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
	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// TierORCID labels contact info resolved through the ORCID public API.
const TierORCID = "orcid"

// orcidAPIBase is the ORCID expanded-search endpoint. Package-level var
// for test substitution.
var orcidAPIBase = "https://pub.orcid.org/v3.0/expanded-search/"

// ORCIDTier resolves candidates against the ORCID registry. The
// expanded-search endpoint returns names, institutions, and any emails
// the researcher made public. Free, but rate-limited; ORCID asks
// callers to identify themselves by email in the User-Agent.
type ORCIDTier struct {
	Client *http.Client

	// Email identifies the caller per ORCID's public API policy.
	Email string
}

func (t *ORCIDTier) Name() string  { return TierORCID }
func (t *ORCIDTier) Cost() float64 { return 0 }

// orcidSearchResponse mirrors the expanded-search JSON.
type orcidSearchResponse struct {
	Results []orcidResult `json:"expanded-result"`
}

type orcidResult struct {
	ORCID        string   `json:"orcid-id"`
	GivenNames   string   `json:"given-names"`
	FamilyNames  string   `json:"family-names"`
	Emails       []string `json:"email"`
	Institutions []string `json:"institution-name"`
}

// Lookup searches ORCID for the candidate by name and keeps the first
// result whose name matches and whose institutions do not contradict
// the candidate's affiliation.
func (t *ORCIDTier) Lookup(ctx context.Context, candidate types.Candidate) (types.ContactInfo, error) {
	q := url.Values{}
	q.Set("q", orcidQuery(candidate.Name))
	q.Set("rows", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, orcidAPIBase+"?"+q.Encode(), nil)
	if err != nil {
		return types.ContactInfo{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if t.Email != "" {
		req.Header.Set("User-Agent", "reviewer-engine (mailto:"+t.Email+")")
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return types.ContactInfo{}, fmt.Errorf("querying ORCID: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.ContactInfo{}, fmt.Errorf("ORCID returned %d", resp.StatusCode)
	}

	var parsed orcidSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return types.ContactInfo{}, fmt.Errorf("decoding ORCID response: %w", err)
	}

	for _, r := range parsed.Results {
		fullName := strings.TrimSpace(r.GivenNames + " " + r.FamilyNames)
		if !identity.SameName(fullName, candidate.Name) {
			continue
		}
		if candidate.Affiliation != "" && len(r.Institutions) > 0 && !institutionListed(r.Institutions, candidate.Affiliation) {
			continue
		}

		info := types.ContactInfo{ORCID: identity.NormalizeORCID(r.ORCID)}
		if len(r.Emails) > 0 {
			info.Email = r.Emails[0]
			info.EmailSource = TierORCID
		}
		return info, nil
	}
	return types.ContactInfo{}, nil
}

// orcidQuery builds a Lucene query against the name fields.
func orcidQuery(name string) string {
	fields := strings.Fields(identity.StripTitle(name))
	if len(fields) < 2 {
		return name
	}
	given := strings.Join(fields[:len(fields)-1], " ")
	family := fields[len(fields)-1]
	return fmt.Sprintf(`given-names:%s AND family-name:%s`, given, family)
}

// institutionListed reports whether any registry institution loosely
// matches the candidate's claimed affiliation.
func institutionListed(institutions []string, affiliation string) bool {
	want := strings.ToLower(affiliation)
	for _, inst := range institutions {
		have := strings.ToLower(inst)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return true
		}
	}
	return false
}
