package presenter

import (
	"fmt"
	"math"
	"strings"

	"insight-explorer/internal/logger"
	"insight-explorer/internal/models"
)

// Credibility bands
const (
	CredibilityHigh   = "high"
	CredibilityMedium = "medium"
	CredibilityLow    = "low"

	highCredibilityMin   = 80
	mediumCredibilityMin = 60
)

const (
	notAvailable = "N/A"
	unknownFlag  = "🌐"

	// EmptyMessage is shown when a search produced no claim results
	EmptyMessage = "No related articles were found for the selected claims."
)

var stanceLabels = map[models.Stance]string{
	models.StanceSupporting: "Supporting",
	models.StanceOpposing:   "Opposing",
	models.StanceNeutral:    "Neutral",
}

// View is the rendered result of one completed search
type View struct {
	Empty        bool        `json:"empty"`
	Message      string      `json:"message,omitempty"`
	Claims       []ClaimView `json:"claims"`
	ArticleCount int         `json:"article_count"`
}

// ClaimView groups the sources found for one claim
type ClaimView struct {
	Claim      string    `json:"claim"`
	Summary    *Summary  `json:"summary,omitempty"`
	Sections   []Section `json:"sections"`
	Consistent bool      `json:"consistent"`
}

// Summary is the stance distribution headline of a claim
type Summary struct {
	TotalSources int `json:"total_sources"`
	Supporting   int `json:"supporting"`
	Opposing     int `json:"opposing"`
	Neutral      int `json:"neutral"`
}

// Section lists the articles of one stance
type Section struct {
	Stance          models.Stance `json:"stance"`
	Label           string        `json:"label"`
	Count           int           `json:"count"`
	CommonArguments []string      `json:"common_arguments,omitempty"`
	Articles        []ArticleView `json:"articles"`
}

// ArticleView is an article with display defaults applied
type ArticleView struct {
	Source          string   `json:"source"`
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Country         string   `json:"country"`
	Flag            string   `json:"flag"`
	PublishedDate   string   `json:"published_date"`
	Bias            string   `json:"bias"`
	Snippet         string   `json:"snippet,omitempty"`
	Credibility     int      `json:"credibility"`
	CredibilityBand string   `json:"credibility_band"`
	Confidence      string   `json:"confidence"`
	KeyEvidence     []string `json:"key_evidence,omitempty"`
	Framing         string   `json:"framing,omitempty"`
}

// Present renders claim results into a view. The view is rebuilt from scratch
// on every call.
func Present(results []models.ClaimResult, articles []models.Article) *View {
	if len(results) == 0 {
		return &View{
			Empty:        true,
			Message:      EmptyMessage,
			Claims:       []ClaimView{},
			ArticleCount: len(articles),
		}
	}

	view := &View{
		Claims:       make([]ClaimView, 0, len(results)),
		ArticleCount: len(articles),
	}
	for _, result := range results {
		view.Claims = append(view.Claims, presentClaim(result))
	}
	return view
}

func presentClaim(result models.ClaimResult) ClaimView {
	cv := ClaimView{
		Claim:      result.Claim,
		Sections:   []Section{},
		Consistent: result.Consistent(),
	}

	if !cv.Consistent {
		logger.Log.WithFields(map[string]interface{}{
			"claim":         result.Claim,
			"total_sources": result.DiversityMetrics.TotalSources,
			"supporting":    result.Supporting.Count,
			"opposing":      result.Opposing.Count,
			"neutral":       result.Neutral.Count,
		}).Warn("Stance counts do not add up to total sources")
	}

	metrics := result.DiversityMetrics
	if metrics.TotalSources > 0 {
		cv.Summary = &Summary{
			TotalSources: metrics.TotalSources,
			Supporting:   metrics.StanceDistribution.Supporting,
			Opposing:     metrics.StanceDistribution.Opposing,
			Neutral:      metrics.StanceDistribution.Neutral,
		}
	}

	for _, stance := range models.Stances {
		bucket := result.Bucket(stance)
		if bucket.Count <= 0 {
			continue
		}
		section := Section{
			Stance:   stance,
			Label:    stanceLabels[stance],
			Count:    bucket.Count,
			Articles: make([]ArticleView, 0, len(bucket.Articles)),
		}
		// neutral coverage carries no shared arguments
		if stance != models.StanceNeutral {
			section.CommonArguments = bucket.CommonArguments
		}
		for _, article := range bucket.Articles {
			section.Articles = append(section.Articles, presentArticle(article))
		}
		cv.Sections = append(cv.Sections, section)
	}

	return cv
}

func presentArticle(article models.Article) ArticleView {
	credibility := article.CredibilityScore()
	av := ArticleView{
		Source:          article.Source,
		URL:             article.URL,
		Title:           article.Title,
		Country:         article.Country,
		Flag:            CountryFlag(article.Country),
		PublishedDate:   orNotAvailable(article.PublishedDate),
		Bias:            orNotAvailable(article.Bias),
		Snippet:         article.Snippet,
		Credibility:     credibility,
		CredibilityBand: ArticleCredibilityBand(article),
		Confidence:      notAvailable,
	}
	if article.Analysis != nil {
		av.Confidence = ConfidencePercent(article.Analysis.Confidence)
		av.KeyEvidence = article.Analysis.KeyEvidence
		av.Framing = article.Analysis.Framing
	}
	return av
}

// CredibilityBand maps a 0-100 score to its display band
func CredibilityBand(score int) string {
	switch {
	case score >= highCredibilityMin:
		return CredibilityHigh
	case score >= mediumCredibilityMin:
		return CredibilityMedium
	default:
		return CredibilityLow
	}
}

// ArticleCredibilityBand bands an article's credibility. A source without a
// score shows the default of 50 but is banded medium rather than low.
func ArticleCredibilityBand(article models.Article) string {
	if article.Credibility == nil {
		return CredibilityMedium
	}
	return CredibilityBand(*article.Credibility)
}

// ConfidencePercent renders a 0-1 confidence as a rounded percentage
func ConfidencePercent(confidence *float64) string {
	if confidence == nil {
		return notAvailable
	}
	return fmt.Sprintf("%d%%", int(math.Round(*confidence*100)))
}

// CountryFlag returns the flag emoji for an ISO 3166 alpha-2 code
func CountryFlag(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "UK" {
		code = "GB"
	}
	if len(code) != 2 {
		return unknownFlag
	}
	var b strings.Builder
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return unknownFlag
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
