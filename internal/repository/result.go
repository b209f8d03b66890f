package repository

// Outcome classifies a repository read.
type Outcome int

const (
	// Found means the read succeeded. Scans that match nothing are Found
	// with an empty slice.
	Found Outcome = iota
	// NotFound means a point read addressed a document that does not exist.
	NotFound
	// Failed means the store or the document decoding failed; Err says why.
	Failed
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the explicit outcome of a repository read.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Err     error
}

// OK reports whether the read found a value.
func (r Result[T]) OK() bool {
	return r.Outcome == Found
}

func found[T any](v T) Result[T] {
	return Result[T]{Outcome: Found, Value: v}
}

func notFound[T any]() Result[T] {
	return Result[T]{Outcome: NotFound}
}

func failed[T any](err error) Result[T] {
	return Result[T]{Outcome: Failed, Err: err}
}
