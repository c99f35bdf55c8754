package facematch

import "errors"

var (
	// ErrAmbiguousFace is returned when an image has zero or several faces.
	ErrAmbiguousFace = errors.New("image must contain exactly one face")

	// ErrDuplicateFace is returned when the face matches an already registered one.
	ErrDuplicateFace = errors.New("this face is already registered")

	// ErrDuplicateIdentifier is returned when the identifier is registered to another face.
	ErrDuplicateIdentifier = errors.New("student ID is already registered")

	// ErrEmptyIdentifier is returned for identifiers that are blank after normalization.
	ErrEmptyIdentifier = errors.New("student ID is required for registration")

	// ErrDimensionMismatch is returned when the embedding size differs from the gallery's.
	ErrDimensionMismatch = errors.New("embedding dimension does not match gallery")
)

// IsRejection reports whether err is a registration or recognition policy outcome
// rather than a failure of the invocation itself.
func IsRejection(err error) bool {
	return errors.Is(err, ErrAmbiguousFace) ||
		errors.Is(err, ErrDuplicateFace) ||
		errors.Is(err, ErrDuplicateIdentifier)
}
