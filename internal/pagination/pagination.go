// Package pagination implements offset/limit windowing for collection endpoints.
package pagination

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/devops-challenge/userapi/internal/model"
)

// Window bounds.
const (
	DefaultOffset = 0
	DefaultLimit  = 10
	MinLimit      = 1
	MaxLimit      = 100
)

// ErrInvalidParams is the sentinel matched by every *ParamError.
var ErrInvalidParams = errors.New("invalid pagination parameters")

// ParamError describes a rejected query parameter.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Reason)
}

// Is lets callers match any ParamError with errors.Is(err, ErrInvalidParams).
func (e *ParamError) Is(target error) bool {
	return target == ErrInvalidParams
}

// Params is a validated offset/limit window.
type Params struct {
	Offset int
	Limit  int
}

// Default returns the window used when no query parameters are supplied.
func Default() Params {
	return Params{Offset: DefaultOffset, Limit: DefaultLimit}
}

// Parse reads offset and limit from a query string.
// Missing values take defaults. Empty, non-integer or out-of-range values are
// rejected.
func Parse(query url.Values) (Params, error) {
	p := Default()

	if query.Has("offset") {
		offset, err := strconv.Atoi(query.Get("offset"))
		if err != nil {
			return Params{}, &ParamError{Param: "offset", Reason: "must be an integer"}
		}
		p.Offset = offset
	}

	if query.Has("limit") {
		limit, err := strconv.Atoi(query.Get("limit"))
		if err != nil {
			return Params{}, &ParamError{Param: "limit", Reason: "must be an integer"}
		}
		p.Limit = limit
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks the window bounds. The offset of the following window
// must also fit in an int so next_url never overflows.
func (p Params) Validate() error {
	if p.Offset < 0 {
		return &ParamError{Param: "offset", Reason: "must be greater than or equal to 0"}
	}
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		return &ParamError{Param: "limit", Reason: fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit)}
	}
	if p.Offset > math.MaxInt-p.Limit {
		return &ParamError{Param: "offset", Reason: fmt.Sprintf("must be at most %d", math.MaxInt-p.Limit)}
	}
	return nil
}

// PageIndex is offset divided by limit, truncated toward zero.
func (p Params) PageIndex() int {
	return p.Offset / p.Limit
}

// Next returns the window following p.
func (p Params) Next() Params {
	return Params{Offset: p.Offset + p.Limit, Limit: p.Limit}
}

// QueryString encodes the window with offset first, then limit.
func (p Params) QueryString() string {
	return "offset=" + strconv.Itoa(p.Offset) + "&limit=" + strconv.Itoa(p.Limit)
}

// NextURL builds the link to the following page of the collection at path.
// A next link is always produced; callers stop on an empty page.
func (p Params) NextURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + path + "?" + p.Next().QueryString()
}

// Meta returns the envelope metadata for the page described by p.
func (p Params) Meta(baseURL, path string) model.Meta {
	return model.Meta{
		PageIndex: p.PageIndex(),
		NextURL:   p.NextURL(baseURL, path),
	}
}

// Collect wraps one page of items into a Collection envelope.
func Collect[T any](items []T, p Params, baseURL, path string) model.Collection[T] {
	return model.NewCollection(items, p.Meta(baseURL, path))
}

// BaseURL returns the scheme and host the client used to reach the server.
// A non-empty public base URL takes precedence over the request.
func BaseURL(r *http.Request, public string) string {
	if public != "" {
		return strings.TrimSuffix(public, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	return scheme + "://" + host
}
