package driver

import (
	"encoding/json"
	"mime"
	"net/http"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// ResponseCapture is everything that was captured from one response. A browser capture
// only has Document, Body and URL; a direct HTTP capture has everything except Document.
type ResponseCapture struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Document   string
	URL        string
}

// Mimetype returns the media type of the Content-Type header without parameters, or ""
// if there is none.
func (r ResponseCapture) Mimetype() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}

func (r ResponseCapture) Text() string {
	return string(r.Body)
}

func (r ResponseCapture) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// JSONValue parses the body as an arbitrary JSON value.
func (r ResponseCapture) JSONValue() (ldvalue.Value, error) {
	var v ldvalue.Value
	err := json.Unmarshal(r.Body, &v)
	return v, err
}

// Cookies returns the cookies set by the response.
func (r ResponseCapture) Cookies() []*http.Cookie {
	return (&http.Response{Header: r.Header}).Cookies()
}

// Cookie returns the named cookie set by the response, or nil.
func (r ResponseCapture) Cookie(name string) *http.Cookie {
	for _, c := range r.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SetCookie returns the raw value of the first Set-Cookie header.
func (r ResponseCapture) SetCookie() string {
	return r.Header.Get("Set-Cookie")
}
