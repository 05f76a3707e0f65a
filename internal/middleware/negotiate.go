package middleware

import (
	"cmp"
	"context"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// Format is a response representation the API can produce.
type Format int

const (
	FormatJSON Format = iota
	FormatXML
)

func (f Format) String() string {
	if f == FormatXML {
		return "xml"
	}
	return "json"
}

type formatKey struct{}

// supportedMediaTypes maps every acceptable Accept entry to a Format.
var supportedMediaTypes = map[string]Format{
	"*/*":              FormatJSON,
	"application/*":    FormatJSON,
	"application/json": FormatJSON,
	"text/json":        FormatJSON,
	"application/xml":  FormatXML,
	"text/xml":         FormatXML,
	"text/*":           FormatXML,
}

// Negotiate picks the response format from the Accept header and stores it
// in the request context (see FormatFromContext).
//
// A missing Accept header means JSON. When nothing in Accept is supported the
// request is answered with 406 and an empty body if strict is set; otherwise
// JSON is served anyway.
func Negotiate(strict bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			format, ok := negotiate(r.Header.Values("Accept"))
			if !ok {
				if strict {
					w.WriteHeader(http.StatusNotAcceptable)
					return
				}
				format = FormatJSON
			}
			next.ServeHTTP(w, r.WithContext(WithFormat(r.Context(), format)))
		})
	}
}

// WithFormat returns a copy of ctx that carries f.
func WithFormat(ctx context.Context, f Format) context.Context {
	return context.WithValue(ctx, formatKey{}, f)
}

// FormatFromContext returns the negotiated format, JSON when none was stored.
func FormatFromContext(ctx context.Context) Format {
	if f, ok := ctx.Value(formatKey{}).(Format); ok {
		return f
	}
	return FormatJSON
}

type acceptEntry struct {
	mediaType string
	q         float64
}

// negotiate returns the supported format with the highest quality. Ties keep
// header order. Entries with q=0 are refusals and never selected.
func negotiate(headers []string) (Format, bool) {
	var entries []acceptEntry
	for _, h := range headers {
		for _, part := range strings.Split(h, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			mediaType, params, err := mime.ParseMediaType(part)
			if err != nil {
				continue
			}
			q := 1.0
			if v, ok := params["q"]; ok {
				if parsed, err := strconv.ParseFloat(v, 64); err == nil {
					q = parsed
				}
			}
			entries = append(entries, acceptEntry{mediaType: mediaType, q: q})
		}
	}
	if len(entries) == 0 {
		return FormatJSON, true
	}

	slices.SortStableFunc(entries, func(a, b acceptEntry) int {
		return cmp.Compare(b.q, a.q)
	})
	for _, e := range entries {
		if e.q <= 0 {
			continue
		}
		if f, ok := supportedMediaTypes[e.mediaType]; ok {
			return f, true
		}
	}
	return FormatJSON, false
}
