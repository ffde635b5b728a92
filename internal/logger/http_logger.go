package logger

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxBodyLogged caps how much of a body is buffered for logging. 1 MiB.
const MaxBodyLogged = 1 << 20

// Directions used in the http.direction attribute.
const (
	IncomingRequest  = "incoming::request"
	IncomingResponse = "incoming::response"
	OutgoingRequest  = "outgoing::request"
	OutgoingResponse = "outgoing::response"
)

var loggedHeaders = map[string]bool{
	"content-type":   true,
	"content-length": true,
	"user-agent":     true,
	"x-trace-id":     true,
	"x-request-id":   true,
	"traceparent":    true,
	"authorization":  true,
	"cookie":         true,
	"set-cookie":     true,
}

var redactedHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
}

// CaptureBody reads up to MaxBodyLogged bytes of r.Body and puts an equivalent
// reader back so the handler still sees the full body.
func CaptureBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyLogged))
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	return body, nil
}

// HeaderAttrs keeps allow-listed headers under http.header.* and masks credentials.
func HeaderAttrs(h http.Header) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(h))
	for name, values := range h {
		key := strings.ToLower(name)
		if !loggedHeaders[key] {
			continue
		}
		v := strings.Join(values, ", ")
		if redactedHeaders[key] {
			v = "***"
		}
		attrs = append(attrs, slog.String("http.header."+key, v))
	}
	return attrs
}

// QueryAttrs flattens query values under http.query.*.
func QueryAttrs(q url.Values) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(q))
	for k, vs := range q {
		if len(vs) == 0 {
			continue
		}
		attrs = append(attrs, slog.String("http.query."+k, strings.Join(vs, ",")))
	}
	return attrs
}

// DecodeBody turns a body into attributes according to its content type.
func DecodeBody(contentType string, body []byte) ([]slog.Attr, error) {
	if len(body) == 0 {
		return nil, nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/json":
		return jsonBodyAttrs(body), nil
	case mediaType == "application/x-www-form-urlencoded":
		return formBodyAttrs(body)
	case strings.HasPrefix(mediaType, "text/"):
		return []slog.Attr{slog.Int("http.body.size_bytes", len(body))}, nil
	default:
		return binaryBodyAttrs(body), nil
	}
}

// RequestAttrs describes a request, incoming or outgoing. body may be nil.
func RequestAttrs(direction string, r *http.Request, body []byte) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	}
	if r.RemoteAddr != "" {
		attrs = append(attrs, slog.String("http.remote_addr", r.RemoteAddr))
	}
	if r.URL.Host != "" {
		attrs = append(attrs, slog.String("http.host", r.URL.Host))
	}
	attrs = append(attrs, HeaderAttrs(r.Header)...)
	attrs = append(attrs, QueryAttrs(r.URL.Query())...)
	return append(attrs, bodyAttrs(r.Header.Get("Content-Type"), body)...)
}

// ResponseAttrs describes the response paired with r.
func ResponseAttrs(direction string, r *http.Request, header http.Header, status int, body []byte, elapsed time.Duration) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
		slog.Int("http.status", status),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	}
	attrs = append(attrs, HeaderAttrs(header)...)
	return append(attrs, bodyAttrs(header.Get("Content-Type"), body)...)
}

func bodyAttrs(contentType string, body []byte) []slog.Attr {
	attrs, err := DecodeBody(contentType, body)
	if err != nil {
		return []slog.Attr{slog.String("http.body.error", err.Error())}
	}
	return attrs
}

func jsonBodyAttrs(b []byte) []slog.Attr {
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return []slog.Attr{slog.String("http.body", string(b))}
	}
	var attrs []slog.Attr
	flatten("http.body", data, &attrs)
	return attrs
}

// flatten walks decoded JSON. Arrays only contribute their length plus the first
// and last element, which keeps list responses readable.
func flatten(prefix string, v any, dst *[]slog.Attr) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flatten(prefix+"."+k, child, dst)
		}
	case []any:
		*dst = append(*dst, slog.Int(prefix+".len", len(t)))
		if len(t) > 0 {
			flatten(prefix+".0", t[0], dst)
		}
		if len(t) > 1 {
			last := len(t) - 1
			flatten(prefix+"."+strconv.Itoa(last), t[last], dst)
		}
	case string:
		*dst = append(*dst, slog.String(prefix, redact(prefix, t)))
	case float64:
		*dst = append(*dst, slog.Float64(prefix, t))
	case bool:
		*dst = append(*dst, slog.Bool(prefix, t))
	case nil:
	default:
		*dst = append(*dst, slog.String(prefix, fmt.Sprint(t)))
	}
}

func formBodyAttrs(b []byte) ([]slog.Attr, error) {
	values, err := url.ParseQuery(string(b))
	if err != nil {
		return nil, err
	}
	attrs := make([]slog.Attr, 0, len(values))
	for k, vs := range values {
		key := "http.body." + k
		attrs = append(attrs, slog.String(key, redact(key, strings.Join(vs, ", "))))
	}
	return attrs, nil
}

func binaryBodyAttrs(b []byte) []slog.Attr {
	const sample = 256
	if len(b) <= sample {
		return []slog.Attr{slog.String("http.body.base64", base64.StdEncoding.EncodeToString(b))}
	}
	return []slog.Attr{
		slog.Int("http.body.size_bytes", len(b)),
		slog.String("http.body.sample_base64", base64.StdEncoding.EncodeToString(b[:sample])),
	}
}

func redact(key, value string) string {
	k := strings.ToLower(key)
	if strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(strings.ToLower(value), "password") {
		return "***"
	}
	return value
}
