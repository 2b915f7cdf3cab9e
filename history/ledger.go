// Package history keeps the per-session ledger of predictions.
package history

import "sync"

// Entry is one prediction as it was made: normalized inputs, derived
// fields, and the classifier's verdict. Immutable once appended.
type Entry struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Pclass     int     `json:"pclass"`
	Age        int     `json:"age"`
	SibSp      int     `json:"sibsp"`
	Parch      int     `json:"parch"`
	Fare       float64 `json:"fare"`
	HasCabin   int     `json:"has_cabin"`
	FamilySize int     `json:"family_size"`
	Sex        string  `json:"sex"`
	Embarked   string  `json:"embarked"`
	Title      string  `json:"title"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}

// Label is the legacy display selector. It is not guaranteed unique when
// the same name is predicted twice within one second; ID is.
func (e Entry) Label() string {
	return e.Name + " | " + e.Timestamp
}

// Ledger is an append-only, insertion-ordered record of predictions.
// One instance per session; never shared across sessions.
type Ledger struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds to the end. No deduplication, no reordering: two predictions
// for the same passenger in the same second are both retained.
func (l *Ledger) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// List returns the full ordered sequence as a copy.
func (l *Ledger) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// SelectByID looks an entry up by its synthetic identifier.
func (l *Ledger) SelectByID(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// SelectByLabel returns the first entry whose Name+Timestamp label matches.
// With a duplicated label the earliest entry wins; callers who need an
// unambiguous selector should use SelectByID.
func (l *Ledger) SelectByLabel(label string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.Label() == label {
			return e, true
		}
	}
	return Entry{}, false
}
