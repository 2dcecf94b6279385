// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package biblio

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const arxivAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Protein structure prediction with diffusion models</title>
    <summary>We present a generative approach.</summary>
    <published>2023-01-17T18:00:00Z</published>
    <author><name>Jane Smith</name></author>
    <author><name>Robert Lee</name></author>
  </entry>
</feed>`

func TestArxivSearchByAuthor(t *testing.T) {
	var rawQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		fmt.Fprint(w, arxivAtomFeed)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	src := &ArxivSource{Client: ts.Client()}
	records, err := src.Search(context.Background(), Query{Name: "Jane Smith"}, testCfg())
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(rawQuery, "au:") {
		t.Errorf("query = %q, want au: field search", rawQuery)
	}

	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	r := records[0]
	if r.SourceID != "2301.07041" {
		t.Errorf("SourceID = %q, want version suffix stripped", r.SourceID)
	}
	if r.Year != 2023 {
		t.Errorf("year = %d, want 2023", r.Year)
	}
	if len(r.Authors) != 2 {
		t.Errorf("authors = %v", r.Authors)
	}
	if r.URL != "https://arxiv.org/abs/2301.07041" {
		t.Errorf("url = %q", r.URL)
	}
}

func TestArxivSearchServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	src := &ArxivSource{Client: ts.Client()}
	if _, err := src.Search(context.Background(), Query{Name: "Jane Smith"}, testCfg()); err == nil {
		t.Fatal("expected error on HTTP 502")
	}
}

func TestBuildArxivQuery(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"person", Query{Name: "Dr. Jane Smith"}, "au:jane+smith"},
		{"subject", Query{Keywords: []string{"diffusion models", "proteins"}}, "all:diffusion+models+AND+all:proteins"},
		{"empty", Query{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildArxivQuery(tt.query); got != tt.want {
				t.Errorf("buildArxivQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://example.com/nothing", ""},
	}
	for _, tt := range tests {
		if got := extractArxivID(tt.in); got != tt.want {
			t.Errorf("extractArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
