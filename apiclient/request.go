package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Multipart is a multipart/form-data request body, used for file uploads.
// Pass it as the body of Do; its boundary content type replaces the
// default JSON header.
type Multipart struct {
	parts []multipartPart
}

type multipartPart struct {
	name     string
	filename string
	value    string
	file     io.Reader
}

func NewMultipart() *Multipart {
	return &Multipart{}
}

// AddField appends a plain form field.
func (m *Multipart) AddField(name, value string) *Multipart {
	m.parts = append(m.parts, multipartPart{name: name, value: value})
	return m
}

// AddFile appends a file part. r is read once, when the request is built.
func (m *Multipart) AddFile(name, filename string, r io.Reader) *Multipart {
	m.parts = append(m.parts, multipartPart{name: name, filename: filename, file: r})
	return m
}

func (m *Multipart) encode() (*payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range m.parts {
		if p.file == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, err
			}
			continue
		}
		fw, err := w.CreateFormFile(p.name, p.filename)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(fw, p.file); err != nil {
			return nil, fmt.Errorf("read %s: %w", p.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &payload{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

// payload is an encoded request body. It is kept as bytes so the single
// post-refresh retry sends exactly the same request.
type payload struct {
	data        []byte
	contentType string
}

func encodeBody(body any) (*payload, error) {
	switch b := body.(type) {
	case nil:
		return &payload{contentType: contentTypeJSON}, nil
	case url.Values:
		return &payload{data: []byte(b.Encode()), contentType: contentTypeForm}, nil
	case *Multipart:
		return b.encode()
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return &payload{data: data, contentType: contentTypeJSON}, nil
	}
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) isJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.contentType)
	if err != nil {
		return false
	}
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

// errorDetail decodes a JSON error body. Other bodies are kept as text.
func (r *response) errorDetail() any {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}
	if r.isJSON() {
		var detail any
		if err := json.Unmarshal(r.body, &detail); err == nil {
			return detail
		}
	}
	return string(r.body)
}

// Do issues method path with body and decodes a 2xx response into T.
//
// A JSON response is unmarshalled into T; any other response is returned as
// raw text when T is string. A []byte T always receives the raw body.
// A 401 on a session holding a refresh token triggers one refresh and one
// replay of the request. Every HTTP failure is an *APIError.
func Do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	return do[T](ctx, c, method, path, body, true)
}

func do[T any](ctx context.Context, c *Client, method, path string, body any, allowRefresh bool) (T, error) {
	var zero T
	p, err := encodeBody(body)
	if err != nil {
		return zero, fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
	}
	resp, err := c.send(ctx, method, path, p, allowRefresh)
	if err != nil {
		return zero, err
	}
	return decode[T](resp)
}

func decode[T any](r *response) (T, error) {
	var out T
	if raw, ok := any(&out).(*[]byte); ok {
		*raw = r.body
		return out, nil
	}
	if r.isJSON() {
		if len(bytes.TrimSpace(r.body)) == 0 {
			return out, nil
		}
		if err := json.Unmarshal(r.body, &out); err != nil {
			return out, fmt.Errorf("apiclient: decode response: %w", err)
		}
		return out, nil
	}
	switch v := any(&out).(type) {
	case *string:
		*v = string(r.body)
	case *struct{}:
	default:
		if len(r.body) != 0 {
			return out, fmt.Errorf("apiclient: cannot decode %q response into %T", r.contentType, out)
		}
	}
	return out, nil
}

// send runs the request state machine: one attempt, and on a 401 with a
// refresh token one refresh followed by exactly one replay.
func (c *Client) send(ctx context.Context, method, path string, p *payload, allowRefresh bool) (*response, error) {
	canRetry := allowRefresh
	for {
		token := c.session.AccessToken()
		resp, err := c.roundTrip(ctx, method, path, p, token)
		if err != nil {
			c.logNetworkError(method, path, err)
			return nil, newNetworkError(err)
		}
		if resp.ok() {
			return resp, nil
		}

		detail := resp.errorDetail()
		if resp.status == http.StatusUnauthorized && allowRefresh {
			if canRetry && c.session.RefreshToken() != "" {
				canRetry = false
				if err := c.handleTokenRefresh(ctx, token); err != nil {
					c.logHTTPError(method, path, resp.status, detail)
					return nil, &APIError{Status: http.StatusUnauthorized, Message: MsgAuthRequired, Detail: err}
				}
				continue
			}
			if !canRetry {
				c.logHTTPError(method, path, resp.status, detail)
				return nil, &APIError{Status: http.StatusUnauthorized, Message: MsgAuthRequired, Detail: detail}
			}
		}

		c.logHTTPError(method, path, resp.status, detail)
		return nil, newHTTPError(resp.status, detail)
	}
}

// roundTrip performs a single exchange and buffers the response body.
func (c *Client) roundTrip(ctx context.Context, method, path string, p *payload, token string) (*response, error) {
	var body io.Reader
	if p != nil && p.data != nil {
		body = bytes.NewReader(p.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if p != nil && p.contentType != "" {
		req.Header.Set("Content-Type", p.contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observeRequest(method, 0)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	observeRequest(method, resp.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}
