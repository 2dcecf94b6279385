// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the reviewer-engine
// pipeline: proposal analyses, reviewer candidates, publication records,
// persisted researchers, and per-stage configuration.
package types

import "time"

// PublicationRecord is a normalized record returned by a bibliographic
// source adapter. Records are verification evidence only; they are never
// persisted standalone.
type PublicationRecord struct {
	// SourceID is the canonical identifier from the source
	// (PMID, arXiv ID, DOI).
	SourceID string `json:"source_id" yaml:"source_id"`

	// Source identifies which adapter found this record
	// (e.g. "pubmed", "arxiv", "biorxiv", "chemrxiv").
	Source string `json:"source" yaml:"source"`

	// Title is the publication title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in source order. Formats vary by
	// database: full names, "Last First" or "Last FM" initials.
	Authors []string `json:"authors" yaml:"authors"`

	// Affiliations lists affiliation strings attached to the record.
	// PubMed attaches these per author; preprint servers usually attach
	// one for the corresponding author. May be empty.
	Affiliations []string `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`

	// Abstract is the abstract or summary text, when the source returns one.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Venue is the journal or server name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Year is the publication year (0 if unknown).
	Year int `json:"year" yaml:"year"`

	// Date is the publication date when the source provides one.
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	// URL points at the publication landing page.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}
