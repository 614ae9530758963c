// Package alert delivers structured signal notifications. The backtest
// engine itself never pushes alerts; only the live scanning loop does.
package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"edgelab-go/internal/metrics"
	sig "edgelab-go/internal/signal"
)

// Payload is the structured alert body handed to a sink.
type Payload struct {
	Symbol    string    `json:"symbol"`
	Direction string    `json:"direction"`
	Tier      string    `json:"tier"`
	Composite float64   `json:"composite"`
	Entry     float64   `json:"entry"`
	Stop      float64   `json:"stop"`
	Target    float64   `json:"target"`
	Detector  string    `json:"detector"`
	Reasons   []string  `json:"reasons,omitempty"`
	Ts        time.Time `json:"ts"`
}

// FromEnhanced builds a payload from a tradeable enhanced signal.
func FromEnhanced(es sig.EnhancedSignal) Payload {
	return Payload{
		Symbol:    es.Signal.Symbol,
		Direction: string(es.Signal.Direction),
		Tier:      string(es.Tier),
		Composite: es.Composite,
		Entry:     es.Signal.Entry,
		Stop:      es.AdjStop,
		Target:    es.AdjTarget,
		Detector:  es.Signal.Detector,
		Reasons:   es.Supports,
		Ts:        es.Signal.Ts,
	}
}

// Sink accepts alert payloads.
type Sink interface {
	Push(p Payload) error
}

// LogSink writes alerts to the logger and counts them; useful as the default
// sink and in tests.
type LogSink struct{ log zerolog.Logger }

// NewLogSink wraps a zerolog logger as a sink.
func NewLogSink(log zerolog.Logger) *LogSink { return &LogSink{log: log} }

// Push logs the alert at info level.
func (s *LogSink) Push(p Payload) error {
	metrics.AlertsTotal.WithLabelValues("log").Inc()
	s.log.Info().
		Str("sym", p.Symbol).
		Str("dir", p.Direction).
		Str("tier", p.Tier).
		Float64("composite", p.Composite).
		Float64("entry", p.Entry).
		Float64("stop", p.Stop).
		Float64("target", p.Target).
		Msg("signal alert")
	return nil
}

// WebhookSink posts alert payloads as JSON to a webhook URL. An empty URL
// disables the sink.
type WebhookSink struct {
	url     string
	client  *http.Client
	enabled bool
}

// NewWebhookSink builds a webhook sink; a blank URL yields a no-op sink.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		enabled: url != "",
	}
}

// Push posts the payload; non-2xx statuses surface as errors.
func (s *WebhookSink) Push(p Payload) error {
	if !s.enabled {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	resp, err := s.client.Post(s.url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	metrics.AlertsTotal.WithLabelValues("webhook").Inc()
	return nil
}
