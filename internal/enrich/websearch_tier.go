// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// TierWebSearch labels contact info found by the AI web-search tier.
const TierWebSearch = "web_search"

// webSearchPromptTmpl asks the model to find a contact email and
// faculty page using web search and answer with bare JSON.
var webSearchPromptTmpl = template.Must(template.New("websearch").Parse(`Find current contact information for the researcher below using web search. Look for their institutional faculty or lab page.

Name: {{.Name}}
{{if .Affiliation}}Institution: {{.Affiliation}}{{end}}
{{if .Expertise}}Field: {{.Expertise}}{{end}}

Respond with a JSON object and nothing else:
{"email": "their institutional email, or empty string if not found", "website": "their faculty or lab page URL, or empty string if not found"}

Only report an email you actually saw on an institutional page. Never guess or construct one from a naming pattern.`))

// claudeSearchAPIURL is the Claude API endpoint for the web-search
// tier. Package-level var for test substitution.
var claudeSearchAPIURL = "https://api.anthropic.com/v1/messages"

// WebSearchTier asks the Claude API, armed with the web-search tool, to
// locate a contact email and faculty page. Costs real money per call,
// so it sits behind the free tiers.
type WebSearchTier struct {
	Client *http.Client
	APIKey string
	Model  string

	cost float64
}

func (t *WebSearchTier) Name() string  { return TierWebSearch }
func (t *WebSearchTier) Cost() float64 { return t.cost }

type searchMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type searchTool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

type searchResponse struct {
	Content []searchContent `json:"content"`
}

type searchContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Lookup runs one web-search conversation for the candidate.
func (t *WebSearchTier) Lookup(ctx context.Context, candidate types.Candidate) (types.ContactInfo, error) {
	var buf bytes.Buffer
	err := webSearchPromptTmpl.Execute(&buf, struct {
		Name        string
		Affiliation string
		Expertise   string
	}{
		Name:        candidate.Name,
		Affiliation: candidate.Affiliation,
		Expertise:   strings.Join(candidate.Expertise, ", "),
	})
	if err != nil {
		return types.ContactInfo{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := map[string]any{
		"model":      t.Model,
		"max_tokens": 1024,
		"messages":   []searchMessage{{Role: "user", Content: buf.String()}},
		"tools": []searchTool{{
			Type:    "web_search_20250305",
			Name:    "web_search",
			MaxUses: 3,
		}},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.ContactInfo{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeSearchAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.ContactInfo{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", t.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return types.ContactInfo{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.ContactInfo{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return types.ContactInfo{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	// The final text block carries the answer; earlier blocks are tool
	// use and search results.
	var answer string
	for _, block := range parsed.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			answer = block.Text
		}
	}
	if answer == "" {
		return types.ContactInfo{}, fmt.Errorf("no text content in Claude API response")
	}

	var found struct {
		Email   string `json:"email"`
		Website string `json:"website"`
	}
	if err := json.Unmarshal([]byte(answer), &found); err != nil {
		return types.ContactInfo{}, fmt.Errorf("parsing web search answer: %w", err)
	}

	info := types.ContactInfo{Website: strings.TrimSpace(found.Website)}
	if email := strings.TrimSpace(found.Email); email != "" && emailRe.MatchString(email) {
		info.Email = email
		info.EmailSource = TierWebSearch
	}
	return info, nil
}
