// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import "testing"

func TestNormalizeORCID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "0000-0001-2345-6789", "0000-0001-2345-6789"},
		{"url", "https://orcid.org/0000-0001-2345-6789", "0000-0001-2345-6789"},
		{"lowercase x checksum", "0000-0002-1825-009x", "0000-0002-1825-009X"},
		{"garbage", "not an orcid", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeORCID(tt.in); got != tt.want {
				t.Errorf("NormalizeORCID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNameKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Jane Smith", "jane smith"},
		{"title", "Dr. Jane Smith", "jane smith"},
		{"professor", "Professor Jane Smith", "jane smith"},
		{"punctuation", "Jane A. Smith-Jones", "jane a smithjones"},
		{"extra spaces", "  Jane   Smith ", "jane smith"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NameKey(tt.in); got != tt.want {
				t.Errorf("NameKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSameName(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "Jane Smith", "Jane Smith", true},
		{"title stripped", "Dr. Jane Smith", "Jane Smith", true},
		{"middle initial dropped", "Jane A Smith", "Jane Smith", true},
		{"middle initial vs middle name", "Jane A Smith", "Jane Anne Smith", true},
		{"initialized first name", "J Smith", "Jane Smith", true},
		{"inverted initials form", "Smith J", "Jane Smith", true},
		{"inverted initials wrong person", "Smythe J", "Jane Smith", false},
		{"different last name", "Jane Smith", "Jane Smythe", false},
		{"different first name", "Jane Smith", "Joan Smith", false},
		{"conflicting middles", "Jane A Smith", "Jane B Smith", false},
		{"single token", "Smith", "Jane Smith", false},
		{"empty", "", "Jane Smith", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameName(tt.a, tt.b); got != tt.want {
				t.Errorf("SameName(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestKeysPriorityOrder(t *testing.T) {
	keys := Keys("Jane@MIT.edu", "0000-0001-2345-6789", "abc123", "Dr. Jane Smith")
	if len(keys) != 4 {
		t.Fatalf("len(keys) = %d, want 4", len(keys))
	}
	wantTypes := []MatchType{MatchEmail, MatchORCID, MatchScholar, MatchName}
	for i, want := range wantTypes {
		if keys[i].Type != want {
			t.Errorf("keys[%d].Type = %q, want %q", i, keys[i].Type, want)
		}
	}
	if keys[0].Value != "jane@mit.edu" {
		t.Errorf("email key = %q, want lowercased", keys[0].Value)
	}
}

func TestKeysSkipsEmpty(t *testing.T) {
	keys := Keys("", "", "", "Jane Smith")
	if len(keys) != 1 {
		t.Fatalf("len(keys) = %d, want 1", len(keys))
	}
	if keys[0].Type != MatchName {
		t.Errorf("keys[0].Type = %q, want name", keys[0].Type)
	}
}

func TestVariants(t *testing.T) {
	variants := Variants("Dr. Jane A. Smith")
	want := map[string]bool{
		"jane a smith": true,
		"jane smith":   true,
		"j smith":      true,
		"smith j":      true,
	}
	if len(variants) != len(want) {
		t.Fatalf("variants = %v, want %d forms", variants, len(want))
	}
	for _, v := range variants {
		if !want[v] {
			t.Errorf("unexpected variant %q", v)
		}
	}
}
