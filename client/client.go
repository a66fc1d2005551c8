package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/videotoaudio/extract-client/job"
)

// Client holds extraction-service configuration and exposes methods
// for interacting with the service
type Client interface {
	// Service
	Health(ctx context.Context) (job.Health, error)
	VideoInfo(ctx context.Context, videoURL string) (*job.VideoInfo, error)

	// Jobs
	CreateJob(ctx context.Context, req ExtractRequest) (*job.Job, error)
	GetJob(ctx context.Context, id string) (*job.Job, error)
	ListJobs(ctx context.Context) ([]job.Job, error)
	DeleteJob(ctx context.Context, id string) (string, error)
	JobStats(ctx context.Context) (job.Stats, error)

	// Logs
	Logs(ctx context.Context, filter LogFilter, limit int) (job.LogsPage, error)
	LogStats(ctx context.Context) (job.LogStats, error)

	// Synchronous processing
	Process(ctx context.Context, req ProcessRequest) (ProcessResult, error)
	ProcessDownload(ctx context.Context, req ProcessRequest, w io.Writer) (DownloadInfo, error)
	Upload(ctx context.Context, file io.Reader, filename string, format job.Format, quality job.Quality) (UploadResponse, error)
	UploadDownload(ctx context.Context, file io.Reader, filename string, format job.Format, quality job.Quality, w io.Writer) (DownloadInfo, error)
	UploadExtract(ctx context.Context, file io.Reader, filename string, format job.Format, quality job.Quality) (*job.Job, error)

	// Maintenance
	Cleanup(ctx context.Context) (CleanupResult, error)
}

const (
	defaultTimeout       = 30 * time.Second
	defaultUploadTimeout = 10 * time.Minute
	defaultBaseURL       = "http://localhost:8000"
)

// DefaultClient talks to one extraction service. The zero value talks
// to a local service with default timeouts; UploadClient carries the
// long deadline the multipart and binary endpoints need.
type DefaultClient struct {
	BaseURL      *url.URL
	Client       *http.Client
	UploadClient *http.Client
}

// NewDefault returns a client for the service at base with the given
// per-request deadline and the longer deadline used by the upload and
// synchronous-processing endpoints.
func NewDefault(base *url.URL, timeout, uploadTimeout time.Duration) *DefaultClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}
	return &DefaultClient{
		BaseURL:      base,
		Client:       &http.Client{Timeout: timeout},
		UploadClient: &http.Client{Timeout: uploadTimeout},
	}
}

// Health returns the service's health report
func (c *DefaultClient) Health(ctx context.Context) (job.Health, error) {
	c.ensure()

	var h job.Health
	err := c.getResource(ctx, &h, "/health", nil)
	if err != nil {
		return job.Health{}, err
	}

	return h, nil
}

// VideoInfo looks up descriptive metadata for a video without
// downloading it
func (c *DefaultClient) VideoInfo(ctx context.Context, videoURL string) (*job.VideoInfo, error) {
	c.ensure()

	var info job.VideoInfo
	err := c.getResource(ctx, &info, "/info", url.Values{"url": []string{videoURL}})
	if err != nil {
		return nil, err
	}

	return &info, nil
}

// CreateJob starts an asynchronous extraction and returns the initial
// job snapshot for polling. The reference is checked against the
// supported-source hint before any request is issued.
func (c *DefaultClient) CreateJob(ctx context.Context, req ExtractRequest) (*job.Job, error) {
	c.ensure()

	if !job.SupportedURL(req.URL) {
		return nil, errors.Errorf("unsupported video url %q: expected a YouTube, Vimeo, direct video file or Supabase storage url", req.URL)
	}

	var j job.Job
	err := c.postResource(ctx, req, &j, "/extract")
	if err != nil {
		return nil, err
	}

	return &j, nil
}

// GetJob returns the current snapshot of a single job
func (c *DefaultClient) GetJob(ctx context.Context, id string) (*job.Job, error) {
	c.ensure()

	var j job.Job
	err := c.getResource(ctx, &j, "/jobs/"+id, nil)
	if err != nil {
		return nil, err
	}

	return &j, nil
}

// ListJobs returns every job the service is tracking
func (c *DefaultClient) ListJobs(ctx context.Context) ([]job.Job, error) {
	c.ensure()

	jobs := []job.Job{}
	err := c.getResource(ctx, &jobs, "/jobs", nil)
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

// DeleteJob removes a job from the service and returns its message
func (c *DefaultClient) DeleteJob(ctx context.Context, id string) (string, error) {
	c.ensure()

	var resp struct {
		Message string `json:"message"`
	}
	err := c.removeResource(ctx, &resp, "/jobs/"+id)
	if err != nil {
		return "", err
	}

	return resp.Message, nil
}

// JobStats returns counters over the service's job table
func (c *DefaultClient) JobStats(ctx context.Context) (job.Stats, error) {
	c.ensure()

	var stats job.Stats
	err := c.getResource(ctx, &stats, "/jobs/stats", nil)
	if err != nil {
		return job.Stats{}, err
	}

	return stats, nil
}

// Cleanup asks the service to drop old jobs and temporary files
func (c *DefaultClient) Cleanup(ctx context.Context) (CleanupResult, error) {
	c.ensure()

	var resp CleanupResult
	err := c.postResource(ctx, nil, &resp, "/cleanup")
	if err != nil {
		return CleanupResult{}, err
	}

	return resp, nil
}

func (c *DefaultClient) ensure() {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: defaultTimeout}
	}

	if c.UploadClient == nil {
		c.UploadClient = &http.Client{Timeout: defaultUploadTimeout}
	}

	if c.BaseURL == nil {
		c.BaseURL = urlMust(url.Parse(defaultBaseURL))
	}
}

func urlMust(u *url.URL, _ error) *url.URL { return u }
