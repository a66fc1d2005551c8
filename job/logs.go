package job

// ExecutionLog is one row of the service's execution history.
type ExecutionLog struct {
	ID                string  `json:"id"`
	Source            string  `json:"source"`
	Timestamp         Time    `json:"timestamp"`
	VideoURL          string  `json:"video_url"`
	VideoTitle        string  `json:"video_title,omitempty"`
	Status            string  `json:"status"`
	AudioURL          string  `json:"audio_url,omitempty"`
	FileSizeFormatted string  `json:"file_size_formatted,omitempty"`
	DurationFormatted string  `json:"duration_formatted,omitempty"`
	Format            string  `json:"format,omitempty"`
	Quality           string  `json:"quality,omitempty"`
	ProcessingTime    float64 `json:"processing_time,omitempty"`
	ErrorCode         string  `json:"error_code,omitempty"`
	ErrorMessage      string  `json:"error_message,omitempty"`
}

// LogsPage is the response of the /logs family of endpoints.
type LogsPage struct {
	Total int            `json:"total"`
	Logs  []ExecutionLog `json:"logs"`
}

// Stats aggregates the service's job table by outcome, with active
// covering every non-terminal job.
type Stats struct {
	TotalJobs     int `json:"total_jobs"`
	CompletedJobs int `json:"completed_jobs"`
	FailedJobs    int `json:"failed_jobs"`
	ActiveJobs    int `json:"active_jobs"`
}

// LogStats aggregates the jobs table by state and source.
type LogStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	APITotal   int `json:"api_total"`
	WebTotal   int `json:"web_total"`
}

// Health is the service's health report.
type Health struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	SupabaseConfigured bool   `json:"supabase_configured"`
	MaxDurationMinutes int    `json:"max_duration_minutes"`
}
