package facematch

// Kind tags a recognition Result.
type Kind string

const (
	KindMatch   Kind = "match"
	KindNoMatch Kind = "no_match"
	KindError   Kind = "error"
)

// NoMatchReason is the reason reported for a valid negative recognition.
const NoMatchReason = "No match found"

// Result is the outcome of a recognition.
type Result struct {
	Kind       Kind
	Identifier string  // set for KindMatch
	Confidence float64 // 1 - Distance, clamped to [0, 1]
	Distance   float64
	Reason     string // set for KindNoMatch and KindError
	Err        error  // set for KindError
}

// Match builds a KindMatch result for the entry at the given distance.
func Match(identifier string, distance float64) Result {
	return Result{
		Kind:       KindMatch,
		Identifier: identifier,
		Confidence: confidence(distance),
		Distance:   distance,
	}
}

// NoMatch builds a KindNoMatch result.
func NoMatch() Result {
	return Result{Kind: KindNoMatch, Reason: NoMatchReason}
}

// Failure builds a KindError result from err.
func Failure(err error) Result {
	return Result{Kind: KindError, Reason: err.Error(), Err: err}
}

func confidence(distance float64) float64 {
	c := 1 - distance
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
