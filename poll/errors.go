package poll

// LookupError is a failed metadata lookup. It is recovered locally:
// previously fetched metadata is cleared and the message surfaced.
type LookupError struct {
	Message string
	Err     error
}

func (e *LookupError) Error() string { return e.Message }
func (e *LookupError) Unwrap() error { return e.Err }

// SubmissionError is a failed job creation. No polling state exists
// when one is returned.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return e.Message }
func (e *SubmissionError) Unwrap() error { return e.Err }
