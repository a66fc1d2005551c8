package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
)

func (c *DefaultClient) getResource(ctx context.Context, result interface{}, path string, query url.Values) error {
	if len(query) != 0 {
		path += "?" + query.Encode()
	}
	return c.reqWithMethodAndPayload(ctx, c.Client, http.MethodGet, path, result, nil)
}

func (c *DefaultClient) postResource(ctx context.Context, resource interface{}, result interface{}, path string) error {
	return c.reqWithMethodAndPayload(ctx, c.Client, http.MethodPost, path, result, resource)
}

func (c *DefaultClient) removeResource(ctx context.Context, result interface{}, path string) error {
	return c.reqWithMethodAndPayload(ctx, c.Client, http.MethodDelete, path, result, nil)
}

func (c *DefaultClient) reqWithMethodAndPayload(ctx context.Context, hc *http.Client, method string, path string, result interface{}, reqBody interface{}) error {
	var req *http.Request
	var err error

	if reqBody != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(reqBody)
		if err != nil {
			return err
		}
		req, err = http.NewRequestWithContext(ctx, method, c.BaseURL.String()+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.BaseURL.String()+path, nil)
		if err != nil {
			return err
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if result == nil {
		_, err = io.Copy(ioutil.Discard, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// checkStatus turns a non-2xx response into a StatusError, carrying
// the service's detail message when the body has one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	b, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(b, &body)

	return &StatusError{Code: resp.StatusCode, Detail: body.Detail}
}

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, e.Reason())
}

func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound
}

// Reason is the message to show a user: the service's detail verbatim,
// or a generic fallback when the body carried none.
func (e *StatusError) Reason() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("the service returned status %d", e.Code)
}

// Reason extracts the user-facing message from any client error.
func Reason(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Reason()
	}
	return err.Error()
}
