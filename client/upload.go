package client

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"

	"github.com/videotoaudio/extract-client/job"
)

// Upload sends a local video file to the service, which extracts the
// audio synchronously and returns the terminal result inline, with
// the stored audio url. Failures the service handled itself come back
// as an error-status body, surfaced through UploadResponse.Err. Large
// files ride the long-deadline client; exceeding it surfaces as a
// timeout error rather than a service failure.
func (c *DefaultClient) Upload(ctx context.Context, file io.Reader, filename string, format job.Format, quality job.Quality) (UploadResponse, error) {
	c.ensure()

	resp, err := c.postMultipart(ctx, "/upload", file, filename, format, quality)
	if err != nil {
		return UploadResponse{}, wrapTimeout(err, "uploading")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return UploadResponse{}, err
	}

	var result UploadResponse
	err = json.NewDecoder(resp.Body).Decode(&result)
	return result, err
}

// UploadDownload sends a local video file and streams the extracted
// audio bytes back into w, returning the informational headers.
func (c *DefaultClient) UploadDownload(ctx context.Context, file io.Reader, filename string, format job.Format, quality job.Quality, w io.Writer) (DownloadInfo, error) {
	c.ensure()

	resp, err := c.postMultipart(ctx, "/upload/download", file, filename, format, quality)
	if err != nil {
		return DownloadInfo{}, wrapTimeout(err, "uploading")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return DownloadInfo{}, err
	}

	info := downloadInfoFrom(resp)
	info.Size, err = io.Copy(w, resp.Body)
	return info, errors.Wrap(err, "reading audio stream")
}

// UploadExtract sends a local video file and returns a pollable job
// instead of waiting for the audio inline.
func (c *DefaultClient) UploadExtract(ctx context.Context, file io.Reader, filename string, format job.Format, quality job.Quality) (*job.Job, error) {
	c.ensure()

	resp, err := c.postMultipart(ctx, "/upload/extract", file, filename, format, quality)
	if err != nil {
		return nil, wrapTimeout(err, "uploading")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var j job.Job
	err = json.NewDecoder(resp.Body).Decode(&j)
	return &j, err
}

// postMultipart streams the file through a pipe so the request body is
// never buffered whole in memory.
func (c *DefaultClient) postMultipart(ctx context.Context, path string, file io.Reader, filename string, format job.Format, quality job.Quality) (*http.Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, file, filename, format, quality)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL.String()+path, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.UploadClient.Do(req)
}

func writeForm(mw *multipart.Writer, file io.Reader, filename string, format job.Format, quality job.Quality) error {
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.Wrap(err, "copying file into form")
	}
	if err := mw.WriteField("format", string(format)); err != nil {
		return err
	}
	return mw.WriteField("quality", string(quality))
}
