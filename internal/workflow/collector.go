package workflow

import (
	"fmt"
	"strings"

	"insight-explorer/internal/models"
)

// Selection is what the user picked: ticked extracted claims by index and at
// most one typed claim.
type Selection struct {
	SelectedClaims []int  `json:"selectedClaims"`
	CustomClaim    string `json:"customClaim"`
}

// Collection is the validated claim set of one workflow run
type Collection struct {
	Ticked   []models.ClaimDescriptor
	FreeText string
}

// HasFreeText reports whether the user typed a claim
func (c Collection) HasFreeText() bool {
	return c.FreeText != ""
}

// Descriptors returns the ticked claims followed by the typed claim without
// search metadata.
func (c Collection) Descriptors() []models.ClaimDescriptor {
	out := make([]models.ClaimDescriptor, 0, len(c.Ticked)+1)
	out = append(out, c.Ticked...)
	if c.HasFreeText() {
		out = append(out, models.FreeTextDescriptor(c.FreeText))
	}
	return out
}

// Collect resolves a selection against the extracted claims. Ticked claims keep
// the metadata attached at extraction time. Identical ticked and typed claims
// are both kept.
func Collect(claims []models.ExtractedClaim, sel Selection) (Collection, error) {
	collection := Collection{
		Ticked:   make([]models.ClaimDescriptor, 0, len(sel.SelectedClaims)),
		FreeText: strings.TrimSpace(sel.CustomClaim),
	}

	seen := make(map[int]bool, len(sel.SelectedClaims))
	for _, idx := range sel.SelectedClaims {
		if idx < 0 || idx >= len(claims) {
			return Collection{}, NewValidationError("selectedClaims", fmt.Sprintf("claim index %d is out of range", idx))
		}
		// a claim can only be ticked once
		if seen[idx] {
			continue
		}
		seen[idx] = true

		descriptor := claims[idx].Descriptor()
		if !descriptor.HasText() {
			return Collection{}, ErrEmptyClaimText
		}
		collection.Ticked = append(collection.Ticked, descriptor)
	}

	if len(collection.Ticked) == 0 && !collection.HasFreeText() {
		return Collection{}, ErrNoClaimSelected
	}
	return collection, nil
}
