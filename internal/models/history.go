package models

import "time"

// Timestamp mirrors the {seconds, nanoseconds} shape the history store emits
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// Time converts the timestamp; the zero value maps to the zero time
func (t *Timestamp) Time() time.Time {
	if t == nil || t.Seconds == 0 {
		return time.Time{}
	}
	return time.Unix(t.Seconds, t.Nanoseconds).UTC()
}

// HistoryItem is one previously analyzed piece of content
type HistoryItem struct {
	URL            string     `json:"url"`
	InputType      string     `json:"input_type"`
	Title          string     `json:"title"`
	Topics         []string   `json:"topics,omitempty"`
	ViewCount      int        `json:"view_count"`
	LastAnalyzedAt *Timestamp `json:"last_analyzed_at,omitempty"`
}
