package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/relief/internal/core/domain"
)

// Subject prefixes for published results.
const (
	SubjectAnalysis = "relief.analysis"
	SubjectProfile  = "relief.profile"
)

// Publisher implements ports.ResultPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// AnalysisEvent is the published form of an analysis. Per-point samples are
// left out.
type AnalysisEvent struct {
	Region    string           `json:"region"`
	Step      float64          `json:"step"`
	CellArea  float64          `json:"cell_area_km2"`
	Tally     domain.AreaTally `json:"tally"`
	StartedAt time.Time        `json:"started_at"`
	Duration  string           `json:"duration"`
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      "RELIEF_RESULTS",
		Subjects:  []string{"relief.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist; update it
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishAnalysis(ctx context.Context, r *domain.AnalysisResult) error {
	data, err := json.Marshal(AnalysisEvent{
		Region:    r.Region,
		Step:      r.Step,
		CellArea:  r.CellArea,
		Tally:     r.Tally,
		StartedAt: r.StartedAt,
		Duration:  r.Duration.String(),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectAnalysis+"."+SubjectToken(r.Region), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishProfile(ctx context.Context, prof *domain.Profile) error {
	data, err := json.Marshal(prof)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectProfile+"."+SubjectToken(prof.Region), data, nats.Context(ctx))
	return err
}

// Conn returns the underlying connection, shared with subscribers.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// connect dials NATS, retrying in the background until the server is up.
func connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("relief"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// SubjectToken turns a region name into a single subject token.
func SubjectToken(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
