package workflow

import (
	"sync"
	"time"

	"insight-explorer/internal/models"
	"insight-explorer/internal/presenter"
)

// Notice is a transient, non-blocking message shown to the user
type Notice struct {
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NoticeError marks a notice raised by a failed call
const NoticeError = "error"

// pendingSearch is an optimized query waiting for the user's approval, plus the
// ticked claims of the same run.
type pendingSearch struct {
	query    *models.OptimizedQuery
	freeText string
	ticked   []models.ClaimDescriptor
}

// Session is the single owner of one user's workflow state. Fields are guarded
// by mu; the lock is never held across network calls.
type Session struct {
	mu sync.Mutex

	id        string
	clientID  string
	createdAt time.Time

	locator   string
	inputType string
	analysis  *models.Analysis
	context   models.AnalysisContext

	state      State
	busy       bool
	extracting bool
	generation uint64

	pending *pendingSearch
	view    *presenter.View
	notice  *Notice
}

func newSession(id, clientID string, now time.Time) *Session {
	return &Session{
		id:        id,
		clientID:  clientID,
		createdAt: now,
		state:     StateIdle,
		context:   models.AnalysisContext{ExistingClaims: []string{}},
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// ClientID returns the client that owns the session
func (s *Session) ClientID() string {
	return s.clientID
}

// apply runs a transition and performs its bookkeeping effects. I/O effects
// are returned for the caller to carry out. Must be called with mu held.
func (s *Session) apply(event Event) ([]Effect, error) {
	from := s.state
	to, err := Transition(from, event)
	if err != nil {
		return nil, err
	}
	effects := Effects(from, event)
	s.state = to

	for _, effect := range effects {
		switch effect {
		case EffectMarkBusy:
			s.busy = true
		case EffectReleaseBusy:
			s.busy = false
		case EffectDiscardPending:
			s.pending = nil
		case EffectClearView:
			s.view = nil
		}
	}
	return effects, nil
}

func (s *Session) setNotice(kind, message string, now time.Time, ttl time.Duration) {
	s.notice = &Notice{
		Message:   message,
		Kind:      kind,
		ExpiresAt: now.Add(ttl),
	}
}

// PendingView is the optimized query shown for approval
type PendingView struct {
	OriginalText      string   `json:"original_text"`
	IssueType         string   `json:"issue_type,omitempty"`
	InterpretedIntent string   `json:"interpreted_intent"`
	SearchKeywords    []string `json:"search_keywords"`
	TargetCountries   []string `json:"target_countries"`
}

// Snapshot is a read-only copy of a session for API responses
type Snapshot struct {
	ID        string                  `json:"id"`
	State     string                  `json:"state"`
	Busy      bool                    `json:"busy"`
	Locator   string                  `json:"url,omitempty"`
	InputType string                  `json:"input_type,omitempty"`
	Summary   string                  `json:"summary,omitempty"`
	Claims    []models.ExtractedClaim `json:"claims"`
	Topics    []string                `json:"topics,omitempty"`
	Cached    bool                    `json:"cached"`
	Pending   *PendingView            `json:"pending,omitempty"`
	Results   *presenter.View         `json:"results,omitempty"`
	Notice    *Notice                 `json:"notice,omitempty"`
}

// snapshot copies the session. Expired notices are dropped. Must be called
// with mu held.
func (s *Session) snapshot(now time.Time) *Snapshot {
	snap := &Snapshot{
		ID:        s.id,
		State:     s.state.String(),
		Busy:      s.busy || s.extracting,
		Locator:   s.locator,
		InputType: s.inputType,
		Claims:    []models.ExtractedClaim{},
		Results:   s.view,
	}
	if s.analysis != nil {
		snap.Summary = s.analysis.Summary
		snap.Claims = append(snap.Claims, s.analysis.KeyClaims...)
		snap.Topics = s.analysis.Topics
		snap.Cached = s.analysis.Cached
	}
	if s.pending != nil {
		snap.Pending = &PendingView{
			OriginalText:      s.pending.freeText,
			IssueType:         s.pending.query.IssueType,
			InterpretedIntent: s.pending.query.InterpretedIntent,
			SearchKeywords:    s.pending.query.SearchKeywords,
			TargetCountries:   s.pending.query.TargetCountries,
		}
	}
	if s.notice != nil {
		if now.Before(s.notice.ExpiresAt) {
			notice := *s.notice
			snap.Notice = &notice
		} else {
			s.notice = nil
		}
	}
	return snap
}
