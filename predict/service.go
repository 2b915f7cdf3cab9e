// Package predict runs the validation, feature-building, classification
// and ledger-append sequence for one request.
package predict

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"steerage/history"
	"steerage/ml"
	"steerage/pipeline"
)

const (
	LabelSurvived      = "Survived"
	LabelDidNotSurvive = "Did Not Survive"

	timestampLayout = "2006-01-02 15:04:05"
)

// ErrClassifierUnavailable means no model artifact is loaded. The service
// refuses to predict rather than degrade silently.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// Result is what the display surface receives for a successful prediction.
type Result struct {
	Label      string        `json:"label"`
	Confidence float64       `json:"confidence"`
	Entry      history.Entry `json:"entry"`
}

// Service holds the process-wide classifier and the session-scoped ledgers.
// The classifier sits behind a lock only so the artifact watcher can swap
// in a reloaded model; it is never mutated in place.
type Service struct {
	mu        sync.RWMutex
	clf       ml.Classifier
	validator *pipeline.Validator
	sessions  *history.Sessions
	logger    *zap.Logger

	onAppend func(sessionID string, e history.Entry)
	now      func() time.Time
}

func NewService(clf ml.Classifier, sessions *history.Sessions, logger *zap.Logger) *Service {
	return &Service{
		clf:       clf,
		validator: pipeline.NewValidator(),
		sessions:  sessions,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClassifier swaps the serving model. Used by the artifact watcher.
func (s *Service) SetClassifier(clf ml.Classifier) {
	s.mu.Lock()
	s.clf = clf
	s.mu.Unlock()
}

func (s *Service) Classifier() ml.Classifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clf
}

// SetAppendHook registers a callback invoked after every ledger append.
// The websocket feed uses it to push entries to subscribers.
func (s *Service) SetAppendHook(hook func(sessionID string, e history.Entry)) {
	s.onAppend = hook
}

// History returns the ledger owned by the given session.
func (s *Service) History(sessionID string) *history.Ledger {
	return s.sessions.Get(sessionID)
}

// Predict validates the input, derives features, invokes the classifier
// once, and appends the outcome to the session's ledger.
//
// Validation failures are expected and user-correctable: they come back as
// a message list, not an error, and nothing downstream runs. Any non-nil
// error is fatal for the request and leaves the ledger untouched.
func (s *Service) Predict(sessionID string, p ml.Passenger) (Result, []string, error) {
	if messages := s.validator.Validate(p); len(messages) > 0 {
		return Result{}, messages, nil
	}

	clf := s.Classifier()
	if clf == nil {
		return Result{}, nil, ErrClassifierUnavailable
	}
	if err := checkSchema(clf.Schema()); err != nil {
		return Result{}, nil, err
	}

	features := ml.BuildFeatures(p)
	label, confidence, err := clf.Predict(features.Vector())
	if err != nil {
		return Result{}, nil, fmt.Errorf("predict: %w", err)
	}

	resultLabel := LabelDidNotSurvive
	if label == 1 {
		resultLabel = LabelSurvived
	}

	entry := s.newEntry(p, resultLabel, confidence)
	ledger := s.sessions.Get(sessionID)
	ledger.Append(entry)
	if s.onAppend != nil {
		s.onAppend(sessionID, entry)
	}

	s.logger.Info("prediction recorded",
		zap.String("session", sessionID),
		zap.String("entry", entry.ID),
		zap.String("label", resultLabel),
		zap.Float64("confidence", confidence))

	return Result{Label: resultLabel, Confidence: confidence, Entry: entry}, nil, nil
}

func (s *Service) newEntry(p ml.Passenger, label string, confidence float64) history.Entry {
	hasCabin := 0
	if p.HasCabin {
		hasCabin = 1
	}
	return history.Entry{
		ID:         uuid.NewString(),
		Name:       ml.NormalizeName(p.Name),
		Pclass:     p.Pclass,
		Age:        ml.EffectiveAge(p.Age),
		SibSp:      p.SibSp,
		Parch:      p.Parch,
		Fare:       p.Fare,
		HasCabin:   hasCabin,
		FamilySize: p.SibSp + p.Parch + 1,
		Sex:        string(p.Sex),
		Embarked:   string(p.Embarked),
		Title:      ml.TitleOf(p.Name),
		Prediction: label,
		Confidence: confidence,
		Timestamp:  s.now().Format(timestampLayout),
	}
}

// checkSchema asserts the classifier's declared feature order against the
// order the builder produces, before every prediction. Positional alignment
// is never trusted.
func checkSchema(schema []string) error {
	names := ml.FeatureNames()
	if len(schema) != len(names) {
		return fmt.Errorf("%w: builder has %d features, classifier expects %d",
			ml.ErrSchemaMismatch, len(names), len(schema))
	}
	for i, name := range names {
		if schema[i] != name {
			return fmt.Errorf("%w: position %d is %q in builder but %q in classifier",
				ml.ErrSchemaMismatch, i, name, schema[i])
		}
	}
	return nil
}
