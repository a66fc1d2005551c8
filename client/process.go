package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// Process runs one extraction synchronously and returns the terminal
// result inline, with no polling involved. The call can take as long
// as the extraction itself, so it runs on the long-deadline client.
func (c *DefaultClient) Process(ctx context.Context, req ProcessRequest) (ProcessResult, error) {
	c.ensure()

	body := new(bytes.Buffer)
	if err := json.NewEncoder(body).Encode(req); err != nil {
		return ProcessResult{}, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL.String()+"/process", body)
	if err != nil {
		return ProcessResult{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.UploadClient.Do(hreq)
	if err != nil {
		return ProcessResult{}, wrapTimeout(err, "processing")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return ProcessResult{}, err
	}

	var result ProcessResult
	err = json.NewDecoder(resp.Body).Decode(&result)
	return result, err
}

// ProcessDownload runs one extraction synchronously and streams the
// raw audio bytes into w, returning the informational headers.
func (c *DefaultClient) ProcessDownload(ctx context.Context, req ProcessRequest, w io.Writer) (DownloadInfo, error) {
	c.ensure()

	body := new(bytes.Buffer)
	if err := json.NewEncoder(body).Encode(req); err != nil {
		return DownloadInfo{}, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL.String()+"/process/download", body)
	if err != nil {
		return DownloadInfo{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.UploadClient.Do(hreq)
	if err != nil {
		return DownloadInfo{}, wrapTimeout(err, "processing")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return DownloadInfo{}, err
	}

	info := downloadInfoFrom(resp)
	info.Size, err = io.Copy(w, resp.Body)
	return info, errors.Wrap(err, "reading audio stream")
}

func downloadInfoFrom(resp *http.Response) DownloadInfo {
	info := DownloadInfo{
		ContentType:    resp.Header.Get("Content-Type"),
		AudioURL:       resp.Header.Get("X-Audio-URL"),
		JobID:          resp.Header.Get("X-Job-ID"),
		VideoTitle:     resp.Header.Get("X-Video-Title"),
		FileSize:       resp.Header.Get("X-File-Size"),
		ProcessingTime: resp.Header.Get("X-Processing-Time"),
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		info.Filename = params["filename"]
	}
	return info
}

// wrapTimeout rewords a client-side deadline into something a user can
// act on; server-reported failures never take this path.
func wrapTimeout(err error, what string) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return errors.Errorf("%s took too long and was aborted, try a shorter video or the async endpoint", what)
	}
	return err
}
