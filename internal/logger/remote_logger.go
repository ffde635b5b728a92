package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// Loki push API payload.
type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type remoteSink struct {
	uri    string
	job    string
	client *http.Client
}

var (
	sink     *remoteSink
	sinkOnce sync.Once
)

// remote returns nil when REMOTE_LOG_HTTP_URI is unset.
func remote() *remoteSink {
	sinkOnce.Do(func() {
		uri := os.Getenv("REMOTE_LOG_HTTP_URI")
		if uri == "" {
			return
		}
		job := os.Getenv("APP_NAME")
		if job == "" {
			job = "catalog-admin"
		}
		sink = &remoteSink{
			uri:    uri,
			job:    job,
			client: &http.Client{Timeout: 5 * time.Second},
		}
	})
	return sink
}

// push ships one record to Loki in the background. Failures go to stderr only.
func push(level slog.Level, msg string, attrs []slog.Attr) {
	s := remote()
	if s == nil {
		return
	}
	now := time.Now()
	go s.send(level, msg, attrs, now)
}

func (s *remoteSink) send(level slog.Level, msg string, attrs []slog.Attr, at time.Time) {
	payload, err := json.Marshal(s.entry(level, msg, attrs, at))
	if err != nil {
		fmt.Fprintf(os.Stderr, "remote log: marshal: %v\n", err)
		return
	}

	resp, err := s.client.Post(s.uri, "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "remote log: send: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "remote log: status %d\n", resp.StatusCode)
	}
}

func (s *remoteSink) entry(level slog.Level, msg string, attrs []slog.Attr, at time.Time) lokiPush {
	line := make(map[string]any, len(attrs)+3)
	for _, a := range attrs {
		line[a.Key] = a.Value.Any()
	}
	line["level"] = level.String()
	line["message"] = msg
	line["time"] = at.Format(time.RFC3339)

	encoded, err := json.Marshal(line)
	if err != nil {
		encoded = []byte(strconv.Quote(msg))
	}

	return lokiPush{
		Streams: []lokiStream{{
			Stream: map[string]string{
				"level": level.String(),
				"job":   s.job,
			},
			Values: [][2]string{{strconv.FormatInt(at.UnixNano(), 10), string(encoded)}},
		}},
	}
}
