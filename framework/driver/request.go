package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RequestSpec describes a request. The With methods return modified copies, so a
// RequestSpec can be shared and extended freely once built.
//
// Form and JSON are alternative bodies; setting one clears the other.
type RequestSpec struct {
	Method  string
	Path    string
	Query   url.Values
	Form    url.Values
	JSON    any
	Header  http.Header
	Host    string
	Cookies []*http.Cookie
}

func Request(method, path string) RequestSpec {
	return RequestSpec{Method: method, Path: path}
}

func Get(path string) RequestSpec    { return Request(http.MethodGet, path) }
func Post(path string) RequestSpec   { return Request(http.MethodPost, path) }
func Put(path string) RequestSpec    { return Request(http.MethodPut, path) }
func Patch(path string) RequestSpec  { return Request(http.MethodPatch, path) }
func Delete(path string) RequestSpec { return Request(http.MethodDelete, path) }

func (r RequestSpec) clone() RequestSpec {
	r.Query = cloneValues(r.Query)
	r.Form = cloneValues(r.Form)
	r.Header = r.Header.Clone()
	r.Cookies = append([]*http.Cookie(nil), r.Cookies...)
	return r
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	ret := make(url.Values, len(v))
	for k, vv := range v {
		ret[k] = append([]string(nil), vv...)
	}
	return ret
}

func (r RequestSpec) WithQuery(key, value string) RequestSpec {
	r = r.clone()
	if r.Query == nil {
		r.Query = url.Values{}
	}
	r.Query.Add(key, value)
	return r
}

func (r RequestSpec) WithFormValue(key, value string) RequestSpec {
	r = r.clone()
	if r.Form == nil {
		r.Form = url.Values{}
	}
	r.Form.Add(key, value)
	r.JSON = nil
	return r
}

func (r RequestSpec) WithForm(values url.Values) RequestSpec {
	r = r.clone()
	r.Form = cloneValues(values)
	r.JSON = nil
	return r
}

// WithJSON sets a body that will be marshaled as JSON.
func (r RequestSpec) WithJSON(value any) RequestSpec {
	r = r.clone()
	r.JSON = value
	r.Form = nil
	return r
}

func (r RequestSpec) WithHeader(key, value string) RequestSpec {
	r = r.clone()
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Add(key, value)
	return r
}

func (r RequestSpec) WithBearerToken(token string) RequestSpec {
	return r.WithHeader("Authorization", "Bearer "+token)
}

// WithHost overrides the Host header, for servers that behave differently per virtual
// host. The connection still goes to the target's address.
func (r RequestSpec) WithHost(host string) RequestSpec {
	r = r.clone()
	r.Host = host
	return r
}

func (r RequestSpec) WithCookies(cookies ...*http.Cookie) RequestSpec {
	r = r.clone()
	r.Cookies = append(r.Cookies, cookies...)
	return r
}

func (r RequestSpec) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// URL returns the absolute URL of the request for the given base URL, including any
// query parameters.
func (r RequestSpec) URL(baseURL string) string {
	path := r.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := strings.TrimSuffix(baseURL, "/") + path
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + r.Query.Encode()
	}
	return u
}

func (r RequestSpec) body() (io.Reader, string, error) {
	switch {
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	case r.Form != nil:
		return strings.NewReader(r.Form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", nil
	}
}

// NewHTTPRequest builds an *http.Request for the given base URL.
func (r RequestSpec) NewHTTPRequest(ctx context.Context, baseURL string) (*http.Request, error) {
	body, contentType, err := r.body()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, r.method(), r.URL(baseURL), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vv := range r.Header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if r.Host != "" {
		req.Host = r.Host
	}
	for _, c := range r.Cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req, nil
}
