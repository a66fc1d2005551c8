package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/videotoaudio/extract-client/job"
)

func testClient(t *testing.T, handler http.Handler) (*DefaultClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return &DefaultClient{BaseURL: base}, srv
}

func TestGetJob(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/abc" {
			t.Errorf("path = %q, want /jobs/abc", r.URL.Path)
		}
		io := `{"job_id":"abc","status":"extracting","progress":60,"message":"Extracting audio...","created_at":"2026-08-29T10:00:00.123456"}`
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(io))
	}))

	j, err := c.GetJob(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if j.ID != "abc" || j.Status != job.StateExtracting || j.Progress != 60 {
		t.Errorf("unexpected job %+v", j)
	}
	if j.CreatedAt.IsZero() {
		t.Error("timezone-less created_at not parsed")
	}
}

func TestStatusErrorDetailSurfacedVerbatim(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "job not found"})
	}))

	_, err := c.GetJob(context.Background(), "nope")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %T, want *StatusError", err)
	}
	if !se.NotFound() {
		t.Errorf("code = %d, want 404", se.Code)
	}
	if se.Reason() != "job not found" {
		t.Errorf("reason = %q, want the detail verbatim", se.Reason())
	}
	if Reason(err) != "job not found" {
		t.Errorf("Reason(err) = %q", Reason(err))
	}
}

func TestStatusErrorUnparsableBody(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>nginx is unhappy</html>"))
	}))

	_, err := c.GetJob(context.Background(), "abc")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %T, want *StatusError", err)
	}
	if se.Reason() != "the service returned status 500" {
		t.Errorf("reason = %q, want the generic fallback", se.Reason())
	}
}

func TestCreateJob(t *testing.T) {
	var got ExtractRequest
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/extract" {
			t.Errorf("%s %s, want POST /extract", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{"job_id": "abc", "status": "pending", "progress": 0})
	}))

	j, err := c.CreateJob(context.Background(), ExtractRequest{
		URL:     "https://youtube.com/watch?v=XYZ",
		Format:  job.FormatMP3,
		Quality: job.QualityMedium,
	})
	if err != nil {
		t.Fatal(err)
	}
	if j.ID != "abc" || j.Status != job.StatePending {
		t.Errorf("unexpected job %+v", j)
	}
	want := ExtractRequest{URL: "https://youtube.com/watch?v=XYZ", Format: "mp3", Quality: "192"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateJobRejectsUnsupportedURL(t *testing.T) {
	hits := 0
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))

	_, err := c.CreateJob(context.Background(), ExtractRequest{URL: "https://example.com/page.html"})
	if err == nil {
		t.Fatal("expected an error for an unsupported url")
	}
	if hits != 0 {
		t.Errorf("client issued %d requests for a url it should have rejected locally", hits)
	}
}

func TestVideoInfoQueryEncoding(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			t.Errorf("path = %q, want /info", r.URL.Path)
		}
		if got := r.URL.Query().Get("url"); got != "https://youtube.com/watch?v=XYZ&t=10" {
			t.Errorf("url query = %q", got)
		}
		json.NewEncoder(w).Encode(job.VideoInfo{ID: "XYZ", Title: "a talk", Source: "youtube"})
	}))

	info, err := c.VideoInfo(context.Background(), "https://youtube.com/watch?v=XYZ&t=10")
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "a talk" {
		t.Errorf("title = %q", info.Title)
	}
}

func TestProcessDownload(t *testing.T) {
	audio := []byte("ID3\x04fake mp3 bytes")
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process/download" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Disposition", `attachment; filename="talk.mp3"`)
		w.Header().Set("X-Audio-URL", "https://files.example.com/talk.mp3")
		w.Header().Set("X-Job-ID", "abc")
		w.Header().Set("X-File-Size", "1.2MB")
		w.Write(audio)
	}))

	var buf bytes.Buffer
	info, err := c.ProcessDownload(context.Background(), ProcessRequest{
		VideoURL: "https://youtube.com/watch?v=XYZ",
		Format:   job.FormatMP3,
		Quality:  job.QualityMedium,
	}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), audio) {
		t.Error("audio bytes not streamed through")
	}
	want := DownloadInfo{
		Filename:    "talk.mp3",
		ContentType: "audio/mpeg",
		Size:        int64(len(audio)),
		AudioURL:    "https://files.example.com/talk.mp3",
		JobID:       "abc",
		FileSize:    "1.2MB",
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("download info mismatch (-want +got):\n%s", diff)
	}
}

func TestUpload(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" {
			t.Errorf("path = %q, want /upload", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Error(err)
			return
		}
		if got := r.FormValue("format"); got != "m4a" {
			t.Errorf("format field = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UploadResponse{
			Status:            "success",
			AudioURL:          "https://files.example.com/clip.m4a",
			Filename:          "clip.mp4",
			FileSizeFormatted: "1.2MB",
			Format:            "m4a",
			Quality:           "256",
			JobID:             "abc",
		})
	}))

	result, err := c.Upload(context.Background(), strings.NewReader("pretend video"), "clip.mp4", job.FormatM4A, job.QualityHigh)
	if err != nil {
		t.Fatal(err)
	}
	if err := result.Err(); err != nil {
		t.Fatalf("Err() = %v for a success body", err)
	}
	if result.AudioURL != "https://files.example.com/clip.m4a" {
		t.Errorf("audio url = %q, the result body was not decoded", result.AudioURL)
	}
	if result.JobID != "abc" || result.FileSizeFormatted != "1.2MB" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestUploadInlineError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(UploadResponse{
			Status:    "error",
			ErrorCode: "EXTRACTION_FAILED",
			Message:   "ffmpeg exited with status 1",
		})
	}))

	result, err := c.Upload(context.Background(), strings.NewReader("pretend video"), "clip.mp4", job.FormatMP3, job.QualityMedium)
	if err != nil {
		t.Fatal(err)
	}
	err = result.Err()
	if err == nil {
		t.Fatal("error-status body did not surface as an error")
	}
	if err.Error() != "ffmpeg exited with status 1" {
		t.Errorf("error = %q, want the service message verbatim", err.Error())
	}
	var jerr *job.Error
	if !errors.As(err, &jerr) || jerr.Code != "EXTRACTION_FAILED" {
		t.Errorf("error code not preserved: %#v", err)
	}
}

func TestUploadDownloadMultipart(t *testing.T) {
	audio := []byte("fake m4a bytes")
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload/download" {
			t.Errorf("path = %q, want /upload/download", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Error(err)
			return
		}
		if got := r.FormValue("format"); got != "m4a" {
			t.Errorf("format field = %q", got)
		}
		if got := r.FormValue("quality"); got != "256" {
			t.Errorf("quality field = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Error(err)
			return
		}
		defer f.Close()
		if hdr.Filename != "clip.mp4" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		body, _ := ioutil.ReadAll(f)
		if string(body) != "pretend video" {
			t.Errorf("file content = %q", body)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="clip.m4a"`)
		w.Header().Set("X-Audio-URL", "https://files.example.com/clip.m4a")
		w.Write(audio)
	}))

	var buf bytes.Buffer
	info, err := c.UploadDownload(context.Background(), strings.NewReader("pretend video"), "clip.mp4", job.FormatM4A, job.QualityHigh, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), audio) {
		t.Error("audio bytes not streamed through")
	}
	if info.Filename != "clip.m4a" || info.Size != int64(len(audio)) || info.AudioURL != "https://files.example.com/clip.m4a" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestJobStats(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs/stats" {
			t.Errorf("path = %q, want /jobs/stats", r.URL.Path)
		}
		json.NewEncoder(w).Encode(job.Stats{TotalJobs: 12, CompletedJobs: 8, FailedJobs: 1, ActiveJobs: 3})
	}))

	stats, err := c.JobStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := job.Stats{TotalJobs: 12, CompletedJobs: 8, FailedJobs: 1, ActiveJobs: 3}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestLogsPaths(t *testing.T) {
	tests := []struct {
		filter   LogFilter
		wantPath string
	}{
		{LogsAll, "/logs"},
		{LogsAPI, "/logs/api"},
		{LogsWeb, "/logs/web"},
		{LogsErrors, "/logs/errors"},
	}
	for _, tt := range tests {
		t.Run(tt.wantPath, func(t *testing.T) {
			c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("path = %q, want %q", r.URL.Path, tt.wantPath)
				}
				if got := r.URL.Query().Get("limit"); got != "25" {
					t.Errorf("limit = %q, want 25", got)
				}
				json.NewEncoder(w).Encode(job.LogsPage{Total: 1, Logs: []job.ExecutionLog{{ID: "1", Source: "api", Status: "success"}}})
			}))

			page, err := c.Logs(context.Background(), tt.filter, 25)
			if err != nil {
				t.Fatal(err)
			}
			if page.Total != 1 || len(page.Logs) != 1 {
				t.Errorf("unexpected page %+v", page)
			}
		})
	}
}

func TestDeleteJob(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/jobs/abc" {
			t.Errorf("%s %s, want DELETE /jobs/abc", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "job deleted"})
	}))

	msg, err := c.DeleteJob(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "job deleted" {
		t.Errorf("message = %q", msg)
	}
}

func TestHealth(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(job.Health{Status: "healthy", Version: "2.1.0", SupabaseConfigured: true, MaxDurationMinutes: 60})
	}))

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := job.Health{Status: "healthy", Version: "2.1.0", SupabaseConfigured: true, MaxDurationMinutes: 60}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}
