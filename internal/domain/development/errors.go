package development

import "errors"

var (
	ErrInvalidArtifact = errors.New("invalid development model artifact")
	ErrFeatureMismatch = errors.New("feature vector length mismatch")
	ErrNonFinite       = errors.New("prediction is not finite")
)
