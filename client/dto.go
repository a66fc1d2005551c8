package client

import (
	"github.com/videotoaudio/extract-client/job"
)

// ExtractRequest is the body of POST /extract.
type ExtractRequest struct {
	URL     string      `json:"url"`
	Format  job.Format  `json:"format"`
	Quality job.Quality `json:"quality"`
}

// ProcessRequest is the body of the synchronous POST /process and
// POST /process/download endpoints.
type ProcessRequest struct {
	VideoURL string      `json:"video_url"`
	Format   job.Format  `json:"format"`
	Quality  job.Quality `json:"quality"`
}

// ProcessResult is the inline terminal result of POST /process.
type ProcessResult struct {
	Status            string         `json:"status"`
	AudioURL          string         `json:"audio_url,omitempty"`
	VideoInfo         *job.VideoInfo `json:"video_info,omitempty"`
	FileSize          int64          `json:"file_size,omitempty"`
	FileSizeFormatted string         `json:"file_size_formatted,omitempty"`
	Duration          int            `json:"duration,omitempty"`
	DurationFormatted string         `json:"duration_formatted,omitempty"`
	Format            string         `json:"format,omitempty"`
	Quality           string         `json:"quality,omitempty"`
	ProcessingTime    float64        `json:"processing_time,omitempty"`
	ErrorCode         string         `json:"error_code,omitempty"`
	Message           string         `json:"message,omitempty"`
}

// Err returns the reported failure, or nil for a successful run.
func (r ProcessResult) Err() error {
	if r.Status == "success" {
		return nil
	}
	return &job.Error{Message: r.Message, Code: r.ErrorCode}
}

// UploadResponse is the inline terminal result of POST /upload. Like
// ProcessResult it carries either the stored audio details or the
// service's inline error shape.
type UploadResponse struct {
	Status                string  `json:"status"`
	AudioURL              string  `json:"audio_url,omitempty"`
	Filename              string  `json:"filename,omitempty"`
	FileSize              int64   `json:"file_size,omitempty"`
	FileSizeFormatted     string  `json:"file_size_formatted,omitempty"`
	OriginalSize          int64   `json:"original_size,omitempty"`
	OriginalSizeFormatted string  `json:"original_size_formatted,omitempty"`
	Duration              int     `json:"duration,omitempty"`
	DurationFormatted     string  `json:"duration_formatted,omitempty"`
	Format                string  `json:"format,omitempty"`
	Quality               string  `json:"quality,omitempty"`
	ProcessingTime        float64 `json:"processing_time,omitempty"`
	JobID                 string  `json:"job_id,omitempty"`
	Message               string  `json:"message,omitempty"`
	ErrorCode             string  `json:"error_code,omitempty"`
}

// Err returns the reported failure, or nil for a successful extraction.
func (r UploadResponse) Err() error {
	if r.Status == "success" {
		return nil
	}
	return &job.Error{Message: r.Message, Code: r.ErrorCode}
}

// DownloadInfo carries the informational headers the binary endpoints
// attach to the audio bytes they stream back.
type DownloadInfo struct {
	Filename       string
	ContentType    string
	Size           int64
	AudioURL       string
	JobID          string
	VideoTitle     string
	FileSize       string
	ProcessingTime string
}

// CleanupResult is the response of POST /cleanup.
type CleanupResult struct {
	FilesCleaned int `json:"files_cleaned"`
	JobsCleaned  int `json:"jobs_cleaned"`
}

// LogFilter selects one of the /logs views.
type LogFilter string

const (
	LogsAll    = LogFilter("")
	LogsAPI    = LogFilter("api")
	LogsWeb    = LogFilter("web")
	LogsErrors = LogFilter("errors")
)

func (f LogFilter) path() string {
	if f == LogsAll {
		return "/logs"
	}
	return "/logs/" + string(f)
}
