package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-resources/core"
)

const (
	DefaultResourcePath = "/resources"
	maxErrorBodySize    = 4 << 10
	// Content-Length is only a hint: the buffer never pre-allocates more than this
	maxPreGrow = 32 << 20
)

type (
	// Fetcher is the network side of a Manager. *Client implements it.
	Fetcher interface {
		FetchPreview(ctx context.Context, fileName string) (Preview, error)
		Download(ctx context.Context, fileName, suggestedName string, onProgress ProgressFunc) (DownloadResult, error)
		CheckExists(ctx context.Context, fileName string) (ExistsResult, error)
		// Release frees a local handle returned by FetchPreview.
		Release(uri string) bool
	}

	ClientOptions struct {
		BaseURL      string `json:"base_url" validate:"required,url"`
		ResourcePath string `json:"resource_path" validate:"omitempty,startswith=/"`
		Token        string `json:"-"`
		Timeout      time.Duration
		HTTPClient   *http.Client `validate:"-"`
		Registry     *Registry    `validate:"-"`
		Saver        Saver        `validate:"-"`
		Logger       core.Logger  `validate:"-"`
	}

	// Client talks to the backend resource service. Create one per process and share it.
	Client struct {
		base     *url.URL
		token    string
		http     *http.Client
		registry *Registry
		saver    Saver
		logger   core.Logger
	}
)

var _ Fetcher = (*Client)(nil)

func NewClient(opts ClientOptions) (*Client, error) {
	validate, translator := core.NewValidator()
	if err := validate.Struct(opts); err != nil {
		return nil, core.TranslateValidationErrors(err, translator)
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing base url")
	}
	resPath := opts.ResourcePath
	if resPath == "" {
		resPath = DefaultResourcePath
	}
	base.Path = strings.TrimRight(base.Path+resPath, "/")
	base.RawPath = ""

	c := &Client{
		base:     base,
		token:    opts.Token,
		http:     opts.HTTPClient,
		registry: opts.Registry,
		saver:    opts.Saver,
		logger:   opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: opts.Timeout}
	}
	if c.registry == nil {
		c.registry = NewRegistry("")
	}
	if c.logger == nil {
		c.logger = core.NopLogger
	}
	return c, nil
}

// Registry returns the registry local handles are allocated from.
func (c *Client) Registry() *Registry { return c.registry }

// Release frees a local handle allocated by this client.
func (c *Client) Release(uri string) bool { return c.registry.Revoke(uri) }

func (c *Client) resourceURL(fileName string) string {
	u := *c.base
	u.Path = c.base.Path + "/" + fileName
	u.RawPath = c.base.EscapedPath() + "/" + url.PathEscape(fileName)
	return u.String()
}

// do sends the request and maps transport failures and error statuses.
// A non-nil response always has a 2xx status and must be closed by the caller.
func (c *Client) do(ctx context.Context, method, fileName string) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, requestError(ctx, fileName, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resourceURL(fileName), nil)
	if err != nil {
		return nil, transportError(fileName, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, requestError(ctx, fileName, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()
		return nil, statusError(fileName, resp.StatusCode, readErrorMessage(resp))
	}
	return resp, nil
}

// FetchPreview retrieves fileName and allocates a local handle for its content.
func (c *Client) FetchPreview(ctx context.Context, fileName string) (Preview, error) {
	resp, err := c.do(ctx, http.MethodGet, fileName)
	if err != nil {
		return Preview{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Preview{}, requestError(ctx, fileName, err)
	}
	// the response may race a cancellation: never hand out a handle for an aborted request
	if err = ctx.Err(); err != nil {
		return Preview{}, requestError(ctx, fileName, err)
	}

	meta := metadataFrom(resp.Header, fileName, data)
	uri := c.registry.Create(data, meta.mimeType)
	c.logger.Debug("resource preview fetched", map[string]interface{}{
		"file": fileName,
		"size": meta.size,
		"mime": meta.mimeType,
	})
	return Preview{
		Blob:             data,
		LocalHandleURI:   uri,
		MimeType:         meta.mimeType,
		ResolvedFileName: meta.fileName,
		SizeBytes:        meta.size,
	}, nil
}

// Download streams fileName, hands it to the Saver under suggestedName (or the server
// provided name) and reports progress whenever the total size is known.
func (c *Client) Download(ctx context.Context, fileName, suggestedName string, onProgress ProgressFunc) (DownloadResult, error) {
	if c.saver == nil {
		return DownloadResult{}, ErrNoSaver
	}
	resp, err := c.do(ctx, http.MethodGet, fileName)
	if err != nil {
		return DownloadResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var buf bytes.Buffer
	if n := resp.ContentLength; n > 0 && n <= maxPreGrow {
		buf.Grow(int(n))
	}
	body := newProgressReader(resp.Body, resp.ContentLength, onProgress)
	if _, err = io.Copy(&buf, body); err != nil {
		return DownloadResult{}, requestError(ctx, fileName, err)
	}
	if err = ctx.Err(); err != nil {
		return DownloadResult{}, requestError(ctx, fileName, err)
	}

	data := buf.Bytes()
	meta := metadataFrom(resp.Header, fileName, data)
	finalName := core.FirstNonEmpty(suggestedName, meta.fileName, fileName)

	uri := c.registry.Create(data, meta.mimeType)
	err = c.saver.Save(ctx, SaveRequest{
		URI:      uri,
		Name:     finalName,
		MimeType: meta.mimeType,
		Size:     int64(len(data)),
	})
	// the save only needs the handle until it has been initiated
	c.registry.Revoke(uri)
	if err != nil {
		return DownloadResult{}, requestError(ctx, fileName, errors.Wrap(err, "saving download"))
	}

	c.logger.Debug("resource download saved", map[string]interface{}{
		"file": fileName,
		"as":   finalName,
		"size": len(data),
	})
	return DownloadResult{Success: true, FinalName: finalName, SizeBytes: int64(len(data))}, nil
}

// CheckExists sends a HEAD request. A missing resource is reported as {Exists: false} without error.
func (c *Client) CheckExists(ctx context.Context, fileName string) (ExistsResult, error) {
	resp, err := c.do(ctx, http.MethodHead, fileName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ExistsResult{Exists: false}, nil
		}
		return ExistsResult{}, err
	}
	_ = resp.Body.Close()

	res := ExistsResult{Exists: true}
	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, pErr := strconv.ParseInt(v, 10, 64); pErr == nil {
			res.SizeBytes = &n
		}
	}
	if v := resp.Header.Get("Content-Type"); v != "" {
		res.MimeType = &v
	}
	return res, nil
}

type metadata struct {
	mimeType string
	size     int64
	fileName string
}

func metadataFrom(h http.Header, fileName string, data []byte) metadata {
	meta := metadata{
		mimeType: h.Get("Content-Type"),
		size:     int64(len(data)),
		fileName: fileName,
	}
	if meta.mimeType == "" {
		meta.mimeType = http.DetectContentType(data)
	}
	if v := h.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			meta.size = n
		}
	}
	if name := dispositionFileName(h.Get("Content-Disposition")); name != "" {
		meta.fileName = name
	}
	return meta
}

// dispositionFileName extracts the filename parameter of a Content-Disposition header.
// RFC 5987 `filename*` values are decoded by mime.ParseMediaType.
func dispositionFileName(cd string) string {
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	return core.CleanString(name)
}

// requestError classifies a failure that happened while a request was in flight.
func requestError(ctx context.Context, fileName string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return cancelledError(fileName, err)
	}
	return transportError(fileName, err)
}

// readErrorMessage returns the richest diagnostic found in an error response body.
func readErrorMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err = json.Unmarshal(data, &body); err == nil {
		return core.FirstNonEmpty(body.Error, body.Message)
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		return core.CleanString(string(data))
	}
	return ""
}
