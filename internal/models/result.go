package models

// Stance classifies an article's position relative to a claim
type Stance string

const (
	StanceSupporting Stance = "supporting"
	StanceOpposing   Stance = "opposing"
	StanceNeutral    Stance = "neutral"
)

// Stances lists stances in display order
var Stances = []Stance{StanceSupporting, StanceOpposing, StanceNeutral}

// DefaultCredibility applies when a source has no credibility score
const DefaultCredibility = 50

// ArticleAnalysis is the per-article stance classification detail
type ArticleAnalysis struct {
	Confidence  *float64 `json:"confidence,omitempty"`
	KeyEvidence []string `json:"key_evidence,omitempty"`
	Framing     string   `json:"framing,omitempty"`
}

// Article is a news source returned by source search
type Article struct {
	Source        string           `json:"source"`
	URL           string           `json:"url"`
	Title         string           `json:"title"`
	Country       string           `json:"country"`
	PublishedDate string           `json:"published_date,omitempty"`
	Credibility   *int             `json:"credibility,omitempty"`
	Bias          string           `json:"bias,omitempty"`
	Snippet       string           `json:"snippet,omitempty"`
	Analysis      *ArticleAnalysis `json:"analysis,omitempty"`
}

// CredibilityScore returns the credibility with the default applied
func (a Article) CredibilityScore() int {
	if a.Credibility == nil {
		return DefaultCredibility
	}
	return *a.Credibility
}

// StanceBucket groups the articles sharing one stance
type StanceBucket struct {
	Count           int       `json:"count"`
	Articles        []Article `json:"articles"`
	CommonArguments []string  `json:"common_arguments,omitempty"`
}

// StanceDistribution is the per-stance count reported in diversity metrics
type StanceDistribution struct {
	Supporting int `json:"supporting"`
	Opposing   int `json:"opposing"`
	Neutral    int `json:"neutral"`
}

// DiversityMetrics summarizes the sources found for a claim
type DiversityMetrics struct {
	TotalSources       int                `json:"total_sources"`
	StanceDistribution StanceDistribution `json:"stance_distribution"`
}

// ClaimResult is the stance-grouped search result for one claim
type ClaimResult struct {
	Claim            string           `json:"claim"`
	Supporting       StanceBucket     `json:"supporting_evidence"`
	Opposing         StanceBucket     `json:"opposing_evidence"`
	Neutral          StanceBucket     `json:"neutral_coverage"`
	DiversityMetrics DiversityMetrics `json:"diversity_metrics"`
}

// Bucket returns the bucket for a stance
func (r ClaimResult) Bucket(s Stance) StanceBucket {
	switch s {
	case StanceSupporting:
		return r.Supporting
	case StanceOpposing:
		return r.Opposing
	default:
		return r.Neutral
	}
}

// Consistent reports whether bucket counts add up to the reported total
func (r ClaimResult) Consistent() bool {
	return r.Supporting.Count+r.Opposing.Count+r.Neutral.Count == r.DiversityMetrics.TotalSources
}

// SearchResult is the "result" member of a source search response
type SearchResult struct {
	Results []ClaimResult `json:"results"`
}
