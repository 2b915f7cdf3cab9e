package predict

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"steerage/history"
	"steerage/ml"
)

type fakeClassifier struct {
	label      int
	confidence float64
	err        error
	schema     []string
	calls      int
}

func (f *fakeClassifier) Predict(features []float64) (int, float64, error) {
	f.calls++
	return f.label, f.confidence, f.err
}

func (f *fakeClassifier) Schema() []string {
	if f.schema != nil {
		return f.schema
	}
	return ml.FeatureNames()
}

func (f *fakeClassifier) Version() string { return "test" }

func newTestService(clf ml.Classifier) (*Service, *history.Sessions) {
	sessions := history.NewSessions(16, time.Minute)
	svc := NewService(clf, sessions, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	}
	return svc, sessions
}

func braund() ml.Passenger {
	return ml.Passenger{
		Name:     "Braund, Mr. Owen Harris",
		Pclass:   3,
		Sex:      ml.SexMale,
		Age:      22,
		SibSp:    1,
		Fare:     7.25,
		Embarked: ml.EmbarkedS,
	}
}

func TestPredictAppendsEntry(t *testing.T) {
	clf := &fakeClassifier{label: 0, confidence: 0.1585}
	svc, _ := newTestService(clf)

	result, violations, err := svc.Predict("session-a", braund())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
	if clf.calls != 1 {
		t.Fatalf("classifier called %d times, want exactly 1", clf.calls)
	}

	if result.Label != LabelDidNotSurvive {
		t.Fatalf("label = %q", result.Label)
	}
	if result.Confidence != 0.1585 {
		t.Fatalf("confidence = %v", result.Confidence)
	}

	e := result.Entry
	if e.ID == "" {
		t.Fatal("entry has no synthetic ID")
	}
	if e.Name != "Braund, Mr. Owen Harris" || e.Title != "Mr" || e.FamilySize != 2 {
		t.Fatalf("derived fields wrong: %+v", e)
	}
	if e.Timestamp != "2026-08-26 10:00:00" {
		t.Fatalf("timestamp = %q", e.Timestamp)
	}

	ledger := svc.History("session-a")
	if ledger.Len() != 1 {
		t.Fatalf("ledger has %d entries, want 1", ledger.Len())
	}
}

func TestPredictSurvivedLabel(t *testing.T) {
	svc, _ := newTestService(&fakeClassifier{label: 1, confidence: 0.84})
	result, _, err := svc.Predict("s", braund())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != LabelSurvived {
		t.Fatalf("label = %q, want %q", result.Label, LabelSurvived)
	}
	// Confidence stays the class-1 probability regardless of label.
	if result.Confidence != 0.84 {
		t.Fatalf("confidence = %v", result.Confidence)
	}
}

func TestPredictValidationBlocksPipeline(t *testing.T) {
	clf := &fakeClassifier{label: 1, confidence: 0.9}
	svc, _ := newTestService(clf)

	p := braund()
	p.Fare = 0
	result, violations, err := svc.Predict("session-a", p)
	if err != nil {
		t.Fatalf("validation must not be an error: %v", err)
	}
	if len(violations) == 0 {
		t.Fatal("expected violations")
	}
	if clf.calls != 0 {
		t.Fatal("classifier invoked despite failed validation")
	}
	if result.Label != "" {
		t.Fatalf("got a result despite failed validation: %+v", result)
	}
	if svc.History("session-a").Len() != 0 {
		t.Fatal("ledger appended despite failed validation")
	}
}

func TestPredictSchemaMismatchIsFatal(t *testing.T) {
	clf := &fakeClassifier{schema: []string{"Pclass", "Age"}}
	svc, _ := newTestService(clf)

	_, _, err := svc.Predict("session-a", braund())
	if !errors.Is(err, ml.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if clf.calls != 0 {
		t.Fatal("classifier invoked despite schema mismatch")
	}
	if svc.History("session-a").Len() != 0 {
		t.Fatal("ledger appended despite schema mismatch")
	}
}

func TestPredictSchemaOrderMismatch(t *testing.T) {
	schema := append([]string(nil), ml.FeatureNames()...)
	schema[0], schema[1] = schema[1], schema[0]
	svc, _ := newTestService(&fakeClassifier{schema: schema})

	_, _, err := svc.Predict("session-a", braund())
	if !errors.Is(err, ml.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "position 0") {
		t.Fatalf("diagnostic should name the offending position: %v", err)
	}
}

func TestPredictClassifierUnavailable(t *testing.T) {
	svc, _ := newTestService(nil)
	if _, _, err := svc.Predict("session-a", braund()); !errors.Is(err, ErrClassifierUnavailable) {
		t.Fatalf("expected ErrClassifierUnavailable, got %v", err)
	}
}

func TestPredictDuplicateWithinSameSecond(t *testing.T) {
	svc, _ := newTestService(&fakeClassifier{label: 0, confidence: 0.2})

	r1, _, err := svc.Predict("session-a", braund())
	if err != nil {
		t.Fatal(err)
	}
	r2, _, err := svc.Predict("session-a", braund())
	if err != nil {
		t.Fatal(err)
	}

	if r1.Entry.Label() != r2.Entry.Label() {
		t.Fatal("test premise broken: labels should collide")
	}
	if r1.Entry.ID == r2.Entry.ID {
		t.Fatal("synthetic IDs must differ")
	}
	if svc.History("session-a").Len() != 2 {
		t.Fatal("duplicate label destroyed data")
	}
}

func TestPredictAgeZeroSubstitution(t *testing.T) {
	svc, _ := newTestService(&fakeClassifier{label: 0, confidence: 0.2})
	p := braund()
	p.Age = 0
	result, _, err := svc.Predict("session-a", p)
	if err != nil {
		t.Fatal(err)
	}
	if result.Entry.Age != 28 {
		t.Fatalf("entry age = %d, want 28", result.Entry.Age)
	}
}

func TestSetClassifierSwaps(t *testing.T) {
	svc, _ := newTestService(&fakeClassifier{label: 0, confidence: 0.2})
	replacement := &fakeClassifier{label: 1, confidence: 0.9}
	svc.SetClassifier(replacement)

	result, _, err := svc.Predict("session-a", braund())
	if err != nil {
		t.Fatal(err)
	}
	if result.Label != LabelSurvived || replacement.calls != 1 {
		t.Fatal("swapped classifier not used")
	}
}

func TestAppendHook(t *testing.T) {
	svc, _ := newTestService(&fakeClassifier{label: 1, confidence: 0.9})

	var gotSession string
	var gotEntry history.Entry
	svc.SetAppendHook(func(sessionID string, e history.Entry) {
		gotSession = sessionID
		gotEntry = e
	})

	result, _, err := svc.Predict("session-a", braund())
	if err != nil {
		t.Fatal(err)
	}
	if gotSession != "session-a" || gotEntry.ID != result.Entry.ID {
		t.Fatal("append hook not invoked with the new entry")
	}
}
