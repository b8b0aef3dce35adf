package workflow

import (
	"context"
	"strings"
	"time"

	"insight-explorer/internal/config"
	"insight-explorer/internal/logger"
	"insight-explorer/internal/models"
	"insight-explorer/internal/presenter"
	"insight-explorer/internal/utils"
)

// Extractor is the claim extraction collaborator
type Extractor interface {
	Analyze(ctx context.Context, locator, inputType string) (*models.Analysis, error)
}

// QueryOptimizer turns a typed claim into an optimized query
type QueryOptimizer interface {
	Optimize(ctx context.Context, freeText string, actx models.AnalysisContext) (*models.OptimizedQuery, error)
}

// Searcher runs the final multi-claim search
type Searcher interface {
	Search(ctx context.Context, locator, inputType string, claims []models.ClaimDescriptor) (*SearchOutcome, error)
}

// PreferenceReader reads the per-client skip-confirmation preference
type PreferenceReader interface {
	SkipConfirmation(ctx context.Context, clientID string) (bool, error)
}

// EventPublisher defines the interface for publishing workflow events
type EventPublisher interface {
	PublishWorkflowEvent(message interface{}) error
}

// Workflow event types
const (
	EventTypeSearchCompleted    = "search_completed"
	EventTypeSearchFailed       = "search_failed"
	EventTypeOptimizationFailed = "optimization_failed"
)

// WorkflowEvent represents the message published when a chain settles
type WorkflowEvent struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	ClientID      string    `json:"client_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	URL           string    `json:"url"`
	InputType     string    `json:"input_type"`
	ClaimsCount   int       `json:"claims_count"`
	ResultsCount  int       `json:"results_count"`
	Error         string    `json:"error,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Features toggles optional workflow steps
type Features struct {
	// OptimizeFreeText routes typed claims through the query optimizer
	OptimizeFreeText bool
	// ConfirmationStep asks the user to approve optimized queries
	ConfirmationStep bool
}

const analyzeFailedMessage = "Content analysis failed. Please try again."

// Controller drives sessions through extraction, optimization, confirmation
// and search.
type Controller struct {
	store       *Store
	extractor   Extractor
	optimizer   QueryOptimizer
	searcher    Searcher
	preferences PreferenceReader
	publisher   EventPublisher
	features    Features
	noticeTTL   time.Duration
	now         func() time.Time
}

// NewController creates a new workflow controller. publisher may be nil.
func NewController(store *Store, extractor Extractor, optimizer QueryOptimizer, searcher Searcher, preferences PreferenceReader, publisher EventPublisher, cfg *config.Config) *Controller {
	return &Controller{
		store:       store,
		extractor:   extractor,
		optimizer:   optimizer,
		searcher:    searcher,
		preferences: preferences,
		publisher:   publisher,
		features: Features{
			OptimizeFreeText: cfg.OptimizeFreeText,
			ConfirmationStep: cfg.ConfirmationStep,
		},
		noticeTTL: cfg.ErrorDisplayTime,
		now:       time.Now,
	}
}

// chainRun is what a chain captured from the session when it started
type chainRun struct {
	generation    uint64
	sessionID     string
	clientID      string
	correlationID string
	locator       string
	inputType     string
	context       models.AnalysisContext
	collection    Collection
}

func (c *Controller) newRun(ctx context.Context, s *Session, collection Collection) chainRun {
	return chainRun{
		generation:    s.generation,
		sessionID:     s.id,
		clientID:      s.clientID,
		correlationID: logger.CorrelationIDFromContext(ctx),
		locator:       s.locator,
		inputType:     s.inputType,
		context:       s.context,
		collection:    collection,
	}
}

// CreateSession opens a session and runs the first extraction. The session is
// discarded if extraction fails.
func (c *Controller) CreateSession(ctx context.Context, clientID, locator, inputType string) (*Snapshot, error) {
	locator, inputType, err := normalizeInput(locator, inputType)
	if err != nil {
		return nil, err
	}

	session := c.store.Create(clientID)
	snap, err := c.analyze(ctx, session, locator, inputType)
	if err != nil {
		c.store.Delete(session.id)
		return nil, err
	}
	return snap, nil
}

// session looks up a session owned by clientID. Sessions of other clients are
// reported as not found.
func (c *Controller) session(clientID, sessionID string) (*Session, error) {
	s, err := c.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if s.ClientID() != clientID {
		logger.Log.WithFields(map[string]interface{}{
			"session_id": sessionID,
			"client_id":  clientID,
		}).Warn("Session requested by a different client")
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Get returns the current view of a session
func (c *Controller) Get(clientID, sessionID string) (*Snapshot, error) {
	s, err := c.session(clientID, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(c.now()), nil
}

// Analyze replaces the session's extraction. Any running chain or pending
// confirmation is superseded.
func (c *Controller) Analyze(ctx context.Context, clientID, sessionID, locator, inputType string) (*Snapshot, error) {
	s, err := c.session(clientID, sessionID)
	if err != nil {
		return nil, err
	}
	locator, inputType, err = normalizeInput(locator, inputType)
	if err != nil {
		return nil, err
	}
	return c.analyze(ctx, s, locator, inputType)
}

func (c *Controller) analyze(ctx context.Context, s *Session, locator, inputType string) (*Snapshot, error) {
	log := logger.WithSession(s.id, logger.CorrelationIDFromContext(ctx))

	s.mu.Lock()
	if s.extracting {
		s.mu.Unlock()
		return nil, ErrActionInProgress
	}
	s.extracting = true
	s.mu.Unlock()

	start := time.Now()
	analysis, err := c.extractor.Analyze(ctx, locator, inputType)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracting = false

	if err != nil {
		s.setNotice(NoticeError, UserMessage(err, analyzeFailedMessage), c.now(), c.noticeTTL)
		log.WithError(err).WithField("url", locator).Warn("Content analysis failed")
		return nil, err
	}

	s.generation++
	s.locator = locator
	s.inputType = inputType
	s.analysis = analysis
	s.context = analysis.Context()
	s.notice = nil
	if _, err := s.apply(EventReset); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"url":          locator,
		"input_type":   inputType,
		"claims_count": len(analysis.KeyClaims),
		"cached":       analysis.Cached,
		"duration_ms":  time.Since(start).Milliseconds(),
	}).Info("Content analyzed")

	return s.snapshot(c.now()), nil
}

// Run starts a workflow run for the user's selection. It returns once the run
// reaches a terminal state: results, a pending confirmation, or a failure.
func (c *Controller) Run(ctx context.Context, clientID, sessionID string, sel Selection) (*Snapshot, error) {
	s, err := c.session(clientID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.busy || s.extracting {
		s.mu.Unlock()
		return nil, ErrActionInProgress
	}
	if s.locator == "" {
		s.mu.Unlock()
		return nil, NewValidationError("url", "analyze content before searching")
	}

	var claims []models.ExtractedClaim
	if s.analysis != nil {
		claims = s.analysis.KeyClaims
	}
	collection, err := Collect(claims, sel)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	event := EventStartDirect
	if collection.HasFreeText() && c.features.OptimizeFreeText {
		event = EventStartOptimized
	}
	if _, err := s.apply(event); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	run := c.newRun(ctx, s, collection)
	s.mu.Unlock()

	if event == EventStartDirect {
		return c.search(ctx, s, run, collection.Descriptors())
	}
	return c.optimize(ctx, s, run)
}

// Confirm approves the pending optimized query and searches with it
func (c *Controller) Confirm(ctx context.Context, clientID, sessionID string) (*Snapshot, error) {
	s, err := c.session(clientID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.busy || s.extracting {
		s.mu.Unlock()
		return nil, ErrActionInProgress
	}
	if s.state != StatePendingConfirmation || s.pending == nil {
		s.mu.Unlock()
		return nil, ErrNothingPending
	}

	pending := s.pending
	if _, err := s.apply(EventConfirm); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	run := c.newRun(ctx, s, Collection{Ticked: pending.ticked, FreeText: pending.freeText})
	s.mu.Unlock()

	descriptors := append(append([]models.ClaimDescriptor{}, pending.ticked...), pending.query.ToDescriptor(pending.freeText))
	return c.search(ctx, s, run, descriptors)
}

func (c *Controller) optimize(ctx context.Context, s *Session, run chainRun) (*Snapshot, error) {
	log := logger.WithSession(run.sessionID, run.correlationID)
	freeText := run.collection.FreeText

	query, optErr := c.optimizer.Optimize(ctx, freeText, run.context)
	skip := false
	if optErr == nil {
		skip = c.skipConfirmation(ctx, run.clientID)
	}

	s.mu.Lock()
	if s.generation != run.generation {
		s.mu.Unlock()
		log.Info("Dropping optimization result for superseded analysis")
		return nil, ErrSuperseded
	}

	event := EventOptimized
	switch {
	case optErr != nil:
		event = EventOptimizeFailed
	case skip:
		event = EventOptimizedSkip
	}
	effects, err := s.apply(event)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	descriptors := append([]models.ClaimDescriptor{}, run.collection.Ticked...)
	switch {
	case hasEffect(effects, EffectStorePending):
		s.pending = &pendingSearch{
			query:    query,
			freeText: freeText,
			ticked:   run.collection.Ticked,
		}
		snap := s.snapshot(c.now())
		s.mu.Unlock()
		log.WithField("interpreted_intent", query.InterpretedIntent).Info("Optimized query awaiting confirmation")
		return snap, nil
	case hasEffect(effects, EffectUseOptimized):
		descriptors = append(descriptors, query.ToDescriptor(freeText))
	case hasEffect(effects, EffectUseDegraded):
		descriptors = append(descriptors, models.FreeTextDescriptor(freeText))
	}

	if _, err := s.apply(EventProceed); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	if optErr != nil {
		log.WithError(optErr).Warn("Query optimization failed, searching with the original text")
		c.publish(run, EventTypeOptimizationFailed, len(descriptors), 0, optErr)
	}

	return c.search(ctx, s, run, descriptors)
}

func (c *Controller) search(ctx context.Context, s *Session, run chainRun, descriptors []models.ClaimDescriptor) (*Snapshot, error) {
	log := logger.WithSession(run.sessionID, run.correlationID)
	start := time.Now()

	outcome, searchErr := c.searcher.Search(ctx, run.locator, run.inputType, descriptors)

	s.mu.Lock()
	if s.generation != run.generation {
		s.mu.Unlock()
		log.Info("Dropping search result for superseded analysis")
		return nil, ErrSuperseded
	}

	if searchErr != nil {
		effects, err := s.apply(EventSearchFailed)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if hasEffect(effects, EffectSurfaceError) {
			s.setNotice(NoticeError, UserMessage(searchErr, defaultSearchFailedMessage), c.now(), c.noticeTTL)
		}
		if _, err := s.apply(EventRecover); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.mu.Unlock()

		log.WithError(searchErr).WithField("claims_count", len(descriptors)).Warn("Source search failed")
		c.publish(run, EventTypeSearchFailed, len(descriptors), 0, searchErr)
		return nil, searchErr
	}

	effects, err := s.apply(EventSearchSucceeded)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if hasEffect(effects, EffectPresentResults) {
		s.view = presenter.Present(outcome.Results, outcome.Articles)
	}
	snap := s.snapshot(c.now())
	s.mu.Unlock()

	log.WithFields(map[string]interface{}{
		"claims_count":   len(descriptors),
		"results_count":  len(outcome.Results),
		"articles_count": len(outcome.Articles),
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Source search completed")
	c.publish(run, EventTypeSearchCompleted, len(descriptors), len(outcome.Results), nil)

	return snap, nil
}

// skipConfirmation decides whether an optimized query is searched without
// asking. A failed preference read counts as "ask".
func (c *Controller) skipConfirmation(ctx context.Context, clientID string) bool {
	if !c.features.ConfirmationStep {
		return true
	}
	if c.preferences == nil {
		return false
	}
	skip, err := c.preferences.SkipConfirmation(ctx, clientID)
	if err != nil {
		logger.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).WithError(err).
			WithField("client_id", clientID).Warn("Could not read skip-confirmation preference")
		return false
	}
	return skip
}

func (c *Controller) publish(run chainRun, eventType string, claimsCount, resultsCount int, cause error) {
	if c.publisher == nil {
		return
	}
	event := WorkflowEvent{
		Type:          eventType,
		SessionID:     run.sessionID,
		ClientID:      run.clientID,
		CorrelationID: run.correlationID,
		URL:           run.locator,
		InputType:     run.inputType,
		ClaimsCount:   claimsCount,
		ResultsCount:  resultsCount,
		OccurredAt:    c.now().UTC(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if err := c.publisher.PublishWorkflowEvent(event); err != nil {
		logger.LogErrorWithStackAndCorrelation(err, run.correlationID, map[string]interface{}{
			"operation":  "publish_workflow_event",
			"event_type": eventType,
			"session_id": run.sessionID,
		})
	}
}

// normalizeInput validates the locator and resolves the input type, detecting
// it from the URL when omitted.
func normalizeInput(locator, inputType string) (string, string, error) {
	locator, err := utils.ValidateLocator(locator)
	if err != nil {
		return "", "", NewValidationError("url", err.Error())
	}

	switch t := strings.ToLower(strings.TrimSpace(inputType)); t {
	case "":
		if utils.IsYouTubeURL(locator) {
			return locator, models.InputTypeYouTube, nil
		}
		return locator, models.InputTypeArticle, nil
	case models.InputTypeArticle, models.InputTypeYouTube:
		return locator, t, nil
	default:
		return "", "", NewValidationError("inputType", "must be article or youtube")
	}
}
