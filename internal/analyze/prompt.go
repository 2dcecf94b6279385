// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// analysisPromptTmpl is the prompt sent to the Claude API for one
// proposal. It instructs the model to return a single JSON object so the
// response parses directly into a ProposalAnalysis.
var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`You are a grant review coordination system. Analyze the following research proposal and suggest qualified external reviewers.

Extract from the proposal:
- title: the proposal title
- principal_investigator: the PI's full name
- co_investigators: full names of any co-investigators
- institution: the proposing institution
- research_area: the primary research area in a short phrase
- keywords: 3 to 8 lowercase subject-matter terms suitable for searching publication databases

Then suggest up to {{.MaxSuggestions}} external reviewers. For each:
- name: the reviewer's full name
- affiliation: their current institution
- expertise: the areas of expertise that qualify them, as a list of short phrases
- reasoning: one or two sentences on why they fit this proposal
- seniority: one of "emerging", "established", "senior"

Do not suggest the PI, co-investigators, or anyone at the proposing institution. Prefer reviewers you are confident are real, currently active researchers.

Respond with a JSON object containing all fields above, with the reviewer list under "suggestions". Do not include any text outside the JSON object.

Example response:
{"title": "Folding Pathways of Membrane Proteins", "principal_investigator": "John Doe", "co_investigators": [], "institution": "MIT", "research_area": "protein folding", "keywords": ["protein folding", "membrane proteins"], "suggestions": [{"name": "Jane Smith", "affiliation": "Stanford University", "expertise": ["protein folding", "molecular dynamics"], "reasoning": "Leads a group studying membrane protein folding kinetics.", "seniority": "senior"}]}

Proposal:
{{.Proposal}}
`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude API to analyze a proposal.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Analyze calls the Claude API with the analysis prompt for one proposal.
func (c *ClaudeBackend) Analyze(ctx context.Context, proposalText string, maxSuggestions int) (types.ProposalAnalysis, error) {
	prompt, err := renderPrompt(proposalText, maxSuggestions)
	if err != nil {
		return types.ProposalAnalysis{}, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: 4096,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.ProposalAnalysis{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.ProposalAnalysis{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return types.ProposalAnalysis{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.ProposalAnalysis{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return types.ProposalAnalysis{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var analysis types.ProposalAnalysis
		if err := json.Unmarshal([]byte(block.Text), &analysis); err != nil {
			return types.ProposalAnalysis{}, fmt.Errorf("parsing analysis JSON: %w", err)
		}
		return analysis, nil
	}

	return types.ProposalAnalysis{}, fmt.Errorf("no text content in Claude API response")
}

// renderPrompt executes the analysis prompt template.
func renderPrompt(proposalText string, maxSuggestions int) (string, error) {
	var buf bytes.Buffer
	err := analysisPromptTmpl.Execute(&buf, struct {
		Proposal       string
		MaxSuggestions int
	}{Proposal: proposalText, MaxSuggestions: maxSuggestions})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
