// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/justingallivan/reviewer-engine/internal/httputil"
	"github.com/justingallivan/reviewer-engine/internal/identity"
	"github.com/justingallivan/reviewer-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute
// httptest servers.
var (
	pubmedSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedFetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// PubMedSource queries PubMed through the NCBI E-utilities: esearch for
// PMIDs, then efetch for full records. An NCBI API key raises the rate
// ceiling from 3 to 10 requests per second.
type PubMedSource struct {
	Client *http.Client
}

// Name returns the source identifier.
func (s *PubMedSource) Name() string { return "pubmed" }

// Search runs esearch + efetch for the query and returns normalized records.
func (s *PubMedSource) Search(ctx context.Context, query Query, cfg types.SourcesConfig) ([]types.PublicationRecord, error) {
	term := buildPubMedTerm(query)
	if term == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}

	if cfg.NCBIAPIKey != "" {
		throttleFor(s.Name()).SetInterval(100 * time.Millisecond)
	}

	ids, err := s.searchIDs(ctx, term, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return s.fetchRecords(ctx, ids, cfg)
}

// searchIDs calls esearch and returns matching PMIDs.
func (s *PubMedSource) searchIDs(ctx context.Context, term string, cfg types.SourcesConfig) ([]string, error) {
	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 25
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {strconv.Itoa(maxRecords)},
		"retmode": {"json"},
		"sort":    {"pub_date"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	body, err := s.get(ctx, pubmedSearchBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sr pubmedSearchResponse
	if err := json.NewDecoder(body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return sr.ESearchResult.IDList, nil
}

// fetchRecords calls efetch for the PMIDs and parses the article XML.
func (s *PubMedSource) fetchRecords(ctx context.Context, ids []string, cfg types.SourcesConfig) ([]types.PublicationRecord, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	body, err := s.get(ctx, pubmedFetchBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var set pubmedArticleSet
	if err := xml.NewDecoder(body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	var records []types.PublicationRecord
	for _, article := range set.Articles {
		r := types.PublicationRecord{
			SourceID: article.MedlineCitation.PMID,
			Source:   "pubmed",
			Title:    strings.TrimSpace(article.MedlineCitation.Article.Title),
			Abstract: strings.TrimSpace(strings.Join(article.MedlineCitation.Article.Abstract.Text, " ")),
			Venue:    article.MedlineCitation.Article.Journal.Title,
			URL:      "https://pubmed.ncbi.nlm.nih.gov/" + article.MedlineCitation.PMID + "/",
		}
		if y, err := strconv.Atoi(article.MedlineCitation.Article.Journal.JournalIssue.PubDate.Year); err == nil {
			r.Year = y
			r.Date = time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		for _, a := range article.MedlineCitation.Article.AuthorList.Authors {
			name := pubmedAuthorName(a)
			if name == "" {
				continue
			}
			r.Authors = append(r.Authors, name)
			for _, aff := range a.Affiliations {
				if aff.Text != "" {
					r.Affiliations = append(r.Affiliations, aff.Text)
				}
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// get performs one throttled, retry-aware GET against an E-utilities URL.
func (s *PubMedSource) get(ctx context.Context, reqURL string, cfg types.SourcesConfig) (io.ReadCloser, error) {
	if err := throttleFor(s.Name()).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed API request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("PubMed API returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// buildPubMedTerm constructs the esearch term parameter. Person queries
// use the "Last First[Author]" field form; subject queries AND the
// keywords together.
func buildPubMedTerm(q Query) string {
	if q.Name != "" {
		fields := strings.Fields(identity.NameKey(q.Name))
		if len(fields) == 0 {
			return ""
		}
		last := fields[len(fields)-1]
		if len(fields) == 1 {
			return last + "[Author]"
		}
		// PubMed author fields are case-insensitive "Last First" form.
		return fmt.Sprintf("%s %s[Author]", last, fields[0])
	}

	var parts []string
	for _, kw := range q.Keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, " AND ")
}

// pubmedAuthorName renders an author element as "Fore Last", falling back
// to initials when the forename is missing.
func pubmedAuthorName(a pubmedAuthor) string {
	switch {
	case a.ForeName != "" && a.LastName != "":
		return a.ForeName + " " + a.LastName
	case a.Initials != "" && a.LastName != "":
		return a.Initials + " " + a.LastName
	case a.LastName != "":
		return a.LastName
	case a.CollectiveName != "":
		return a.CollectiveName
	default:
		return ""
	}
}

// E-utilities response structures.

type pubmedSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    string `xml:"ArticleTitle"`
			Abstract struct {
				Text []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Journal struct {
				Title        string `xml:"Title"`
				JournalIssue struct {
					PubDate struct {
						Year string `xml:"Year"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			AuthorList struct {
				Authors []pubmedAuthor `xml:"Author"`
			} `xml:"AuthorList"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

type pubmedAuthor struct {
	LastName       string              `xml:"LastName"`
	ForeName       string              `xml:"ForeName"`
	Initials       string              `xml:"Initials"`
	CollectiveName string              `xml:"CollectiveName"`
	Affiliations   []pubmedAffiliation `xml:"AffiliationInfo"`
}

type pubmedAffiliation struct {
	Text string `xml:"Affiliation"`
}
