package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Content input types accepted by the extraction service
const (
	InputTypeArticle = "article"
	InputTypeYouTube = "youtube"
)

// ClaimDescriptor is the unit submitted to source search. Keywords and countries
// may be empty, in which case the search service derives them.
type ClaimDescriptor struct {
	Text            string   `json:"claim_kr"`
	SearchKeywords  []string `json:"search_keywords_en"`
	TargetCountries []string `json:"target_country_codes"`
}

// NewClaimDescriptor builds a descriptor with non-nil keyword and country slices
func NewClaimDescriptor(text string, keywords, countries []string) ClaimDescriptor {
	return ClaimDescriptor{
		Text:            text,
		SearchKeywords:  cloneStrings(keywords),
		TargetCountries: cloneStrings(countries),
	}
}

// FreeTextDescriptor builds a descriptor for user-authored text without metadata
func FreeTextDescriptor(text string) ClaimDescriptor {
	return NewClaimDescriptor(text, nil, nil)
}

// HasText reports whether the descriptor carries a usable claim
func (d ClaimDescriptor) HasText() bool {
	return strings.TrimSpace(d.Text) != ""
}

// ExtractedClaim is one entry of an extraction result. Older extraction
// responses sent bare strings; newer ones send objects with search metadata.
type ExtractedClaim struct {
	Text            string   `json:"claim_kr"`
	SearchKeywords  []string `json:"search_keywords_en,omitempty"`
	TargetCountries []string `json:"target_country_codes,omitempty"`
}

// UnmarshalJSON accepts either the legacy string form or the object form
func (c *ExtractedClaim) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = ExtractedClaim{Text: text}
		return nil
	}

	type plain ExtractedClaim
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode extracted claim: %w", err)
	}
	*c = ExtractedClaim(p)
	return nil
}

// Descriptor converts the extracted claim into a search descriptor carrying the
// metadata attached at extraction time.
func (c ExtractedClaim) Descriptor() ClaimDescriptor {
	return NewClaimDescriptor(c.Text, c.SearchKeywords, c.TargetCountries)
}

// Analysis is the payload of a claim extraction
type Analysis struct {
	KeyClaims        []ExtractedClaim `json:"key_claims"`
	Summary          string           `json:"summary_kr,omitempty"`
	RelatedCountries []string         `json:"related_countries,omitempty"`
	Topics           []string         `json:"topics,omitempty"`
	Cached           bool             `json:"cached,omitempty"`
}

// AnalysisContext grounds the query optimizer in the prior extraction
type AnalysisContext struct {
	TitleOrSummary string   `json:"title"`
	ExistingClaims []string `json:"existingClaims"`
}

// Context builds the optimizer context from this extraction
func (a *Analysis) Context() AnalysisContext {
	if a == nil {
		return AnalysisContext{ExistingClaims: []string{}}
	}
	claims := make([]string, 0, len(a.KeyClaims))
	for _, c := range a.KeyClaims {
		if c.Text != "" {
			claims = append(claims, c.Text)
		}
	}
	return AnalysisContext{
		TitleOrSummary: a.Summary,
		ExistingClaims: claims,
	}
}

// OptimizedQuery is the normalized output of the query optimizer
type OptimizedQuery struct {
	IssueType         string   `json:"issue_type,omitempty"`
	InterpretedIntent string   `json:"interpreted_intent"`
	SearchKeywords    []string `json:"search_keywords"`
	TargetCountries   []string `json:"target_countries"`
}

// ToDescriptor converts an approved query into a search descriptor. The claim
// text stays in the user's original wording.
func (q OptimizedQuery) ToDescriptor(originalText string) ClaimDescriptor {
	return NewClaimDescriptor(originalText, q.SearchKeywords, q.TargetCountries)
}

func cloneStrings(in []string) []string {
	out := make([]string, 0, len(in))
	return append(out, in...)
}
