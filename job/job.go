package job

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of an extraction job. The service moves
// a job forward through the non-terminal states in order; failed may be
// entered from any of them. No state is revisited.
type State string

const (
	StatePending     = State("pending")
	StateProcessing  = State("processing")
	StateDownloading = State("downloading")
	StateExtracting  = State("extracting")
	StateUploading   = State("uploading")
	StateCompleted   = State("completed")
	StateFailed      = State("failed")
)

// Terminal reports whether no further transitions can occur.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Active reports whether the job is known and still in flight.
func (s State) Active() bool {
	return s != "" && !s.Terminal()
}

// Job is one extraction request tracked by the service.
//
// Result is absent while Status is non-terminal and present once it is.
// Progress is an integer percentage reported by the service; it is kept
// as reported, without clamping or smoothing.
type Job struct {
	ID        string     `json:"job_id"`
	Status    State      `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message"`
	CreatedAt Time       `json:"created_at"`
	VideoInfo *VideoInfo `json:"video_info,omitempty"`
	Result    *Result    `json:"result,omitempty"`
}

// Result carries the terminal payload of a job: either the stored audio
// file details or the failure reported by the service.
type Result struct {
	Success  bool   `json:"success"`
	AudioURL string `json:"audio_url,omitempty"`
	Filename string `json:"filename,omitempty"`
	FileSize string `json:"file_size,omitempty"`
	Format   string `json:"format,omitempty"`
	Quality  string `json:"quality,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Err builds the error to surface for a failed job. The service's
// message is used verbatim; the error code, when present, rides along
// untouched for display and logging.
func (r *Result) Err() error {
	e := &Error{}
	if r != nil {
		e.Message = r.Error
		e.Code = r.ErrorCode
	}
	return e
}

// Error is the failure the service reported for a job.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "extraction failed"
	}
	return e.Message
}

// VideoInfo is descriptive metadata for a source video. It may be
// attached to a job before the job completes.
type VideoInfo struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	DurationSeconds   int    `json:"duration_seconds"`
	DurationFormatted string `json:"duration_formatted"`
	Thumbnail         string `json:"thumbnail,omitempty"`
	Source            string `json:"source"`
	Channel           string `json:"channel,omitempty"`
}

// Time wraps time.Time to accept the service's timestamps, which are
// emitted both with and without a timezone offset.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	for _, layout := range timeLayouts {
		if t.Time, err = time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return fmt.Errorf("parsing time %q: %v", s, err)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}
