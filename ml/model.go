package ml

import "errors"

// ErrSchemaMismatch reports that a feature vector does not line up with the
// schema the loaded artifact was trained on. A prediction computed on
// misaligned features is meaningless, so callers must treat this as fatal
// for the request.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Classifier is a pre-trained binary model. Predict returns the class label
// and the class-1 probability from the same evaluation, so label and
// confidence can never disagree.
type Classifier interface {
	Predict(features []float64) (int, float64, error)
	Schema() []string
	Version() string
}
