package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FilenameHeader carries the upload file name; the body is the raw image.
const FilenameHeader = "X-Filename"

// ErrMalformed is returned when a response body is not the expected JSON.
var ErrMalformed = errors.New("malformed response")

// HTTPError is a non-success HTTP status from the device.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

// APIError is an application-level failure reported as {status:"error"}.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// ProgressFunc receives the number of bytes sent so far and the total.
type ProgressFunc func(sent, total int64)

// Client talks to the device-resident HTTP API.
type Client struct {
	base string
	http *http.Client
	now  func() time.Time
}

// NewClient creates a client for the device at baseURL (e.g. http://192.168.4.1).
// No timeout is imposed beyond what the transport provides.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: hc,
		now:  time.Now,
	}
}

// BaseURL returns the device address the client was created with.
func (c *Client) BaseURL() string { return c.base }

type statusReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (r statusReply) err() error {
	if r.Status == "ok" {
		return nil
	}
	msg := r.Message
	if msg == "" {
		msg = r.Error
	}
	if msg == "" {
		msg = "Unknown error"
	}
	return &APIError{Message: msg}
}

// Config fetches the current configuration.
func (c *Client) Config(ctx context.Context) (Configuration, error) {
	var cfg Configuration
	err := c.getJSON(ctx, "/api/config", &cfg)
	return cfg, err
}

// SaveConfig replaces the device configuration wholesale.
func (c *Client) SaveConfig(ctx context.Context, cfg Configuration) error {
	var reply statusReply
	if err := c.postJSON(ctx, "/api/config", cfg, &reply); err != nil {
		return err
	}
	return reply.err()
}

// Files lists disk images on flash and SD card, in device order.
func (c *Client) Files(ctx context.Context) ([]string, error) {
	var files []string
	path := "/api/files?t=" + strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.getJSON(ctx, path, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// DeleteFile removes a disk image. The device refuses mounted and system
// files with a non-2xx status and an {error} body, which is returned as an
// *APIError. A non-2xx reply without a JSON body is an *HTTPError.
func (c *Client) DeleteFile(ctx context.Context, path string) error {
	req, err := c.jsonRequest(ctx, "/api/files/delete", map[string]string{"path": path})
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var reply statusReply
	jsonErr := json.Unmarshal(data, &reply)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if jsonErr != nil || (reply.Error == "" && reply.Message == "") {
			return &HTTPError{Code: resp.StatusCode}
		}
		return reply.err()
	}
	if jsonErr != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrMalformed, req.URL.Path, jsonErr)
	}
	return reply.err()
}

// SetMonitorChannel selects the serial channel mirrored into the terminal buffer.
func (c *Client) SetMonitorChannel(ctx context.Context, ch int) error {
	return c.postJSON(ctx, "/api/serial/monitor", map[string]int{"chan": ch}, nil)
}

// Status fetches one status snapshot.
func (c *Client) Status(ctx context.Context) (StatusSnapshot, error) {
	var s StatusSnapshot
	err := c.getJSON(ctx, "/api/status", &s)
	return s, err
}

// SDStatus fetches SD card mount state.
func (c *Client) SDStatus(ctx context.Context) (SDStatus, error) {
	var s SDStatus
	err := c.getJSON(ctx, "/api/sd/status", &s)
	return s, err
}

// Upload streams body as a raw request to the upload endpoint. progress may be nil.
// On a non-200 status the device's error field is returned when the body is JSON.
func (c *Client) Upload(ctx context.Context, name string, body io.Reader, size int64, progress ProgressFunc) error {
	if progress != nil {
		body = &countingReader{r: body, total: size, fn: progress}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/files/upload", body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set(FilenameHeader, name)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var reply map[string]any
	jsonErr := json.Unmarshal(data, &reply)
	if resp.StatusCode != http.StatusOK {
		herr := &HTTPError{Code: resp.StatusCode}
		if jsonErr == nil {
			if msg, ok := reply["error"].(string); ok {
				herr.Message = msg
			}
		}
		return herr
	}
	if jsonErr != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, jsonErr)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) postJSON(ctx context.Context, path string, body, dest any) error {
	req, err := c.jsonRequest(ctx, path, body)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) jsonRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &HTTPError{Code: resp.StatusCode}
	}
	if dest == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformed, req.Method, req.URL.Path, err)
	}
	return nil
}

type countingReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		c.fn(c.sent, c.total)
	}
	return n, err
}
