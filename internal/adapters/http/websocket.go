package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/relief/internal/adapters/nats"
	"github.com/samirrijal/relief/internal/core/domain"
)

// progressMessage reports one sampled point of a running analysis.
type progressMessage struct {
	Type      string   `json:"type"` // "progress"
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation"`
	Error     string   `json:"error,omitempty"`
}

// wsConn serialises writes to a websocket connection.
type wsConn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteMessage(websocket.TextMessage, data)
}

// keepAlive pings the client every 30s until done is closed.
func (w *wsConn) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			err := w.c.WriteMessage(websocket.PingMessage, nil)
			w.mu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// AnalysisStreamHandler runs analyses requested over the socket and streams
// per-point progress followed by the result.
// Clients send the same JSON body as POST /v1/analyses. One analysis runs at
// a time per connection; closing the socket cancels it.
func AnalysisStreamHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws analysis client connected", "remote", remoteAddr)

		w := &wsConn{c: c}
		ctx, cancel := context.WithCancel(context.Background())

		jobs := make(chan analysisBody)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for body := range jobs {
				runStreamedAnalysis(ctx, deps, w, body)
			}
		}()
		go w.keepAlive(done)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var body analysisBody
			if err := json.Unmarshal(msg, &body); err != nil {
				_ = w.writeJSON(wsError("invalid JSON"))
				continue
			}

			if !offer(jobs, body) {
				_ = w.writeJSON(wsError("an analysis is already running on this connection"))
			}
		}

		cancel()
		close(jobs)
		<-done
		slog.Info("ws analysis client disconnected", "remote", remoteAddr)
	}
}

func runStreamedAnalysis(ctx context.Context, deps *Dependencies, w *wsConn, body analysisBody) {
	req, err := body.request(ctx, deps.Regions)
	if err == nil {
		err = checkGridSize(req, streamLimit(deps.MaxPoints))
	}
	if err != nil {
		_ = w.writeJSON(wsError(err.Error()))
		return
	}

	progress := func(i, n int, s domain.ElevationSample) {
		m := progressMessage{
			Type:      "progress",
			Index:     i,
			Total:     n,
			Lat:       s.Coordinate.Lat,
			Lon:       s.Coordinate.Lon,
			Elevation: s.Elevation,
		}
		if s.Err != nil {
			m.Error = s.Err.Error()
		}
		_ = w.writeJSON(m)
	}

	result, err := deps.Analyses.Analyze(ctx, req, progress)
	if err != nil {
		_ = w.writeJSON(map[string]any{"type": "error", "error": err.Error(), "partial": result})
		return
	}
	if !body.IncludeSamples {
		trimmed := *result
		trimmed.Samples = nil
		result = &trimmed
	}
	_ = w.writeJSON(map[string]any{"type": "result", "result": result})
}

// streamLimit is the grid size limit for streamed analyses.
func streamLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultMaxPoints
	}
	return 20 * limit
}

func wsError(msg string) map[string]string {
	return map[string]string{"type": "error", "error": msg}
}

// relayMessage is sent from client to subscribe/unsubscribe to published results.
type relayMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Kind   string `json:"kind"`   // "analysis" | "profile" (default: analysis)
	Region string `json:"region"` // region filter (optional, "" = all)
}

// ResultsRelayHandler relays analyses and profiles published on NATS to the
// client. All analyses are relayed by default.
// Clients send JSON: {"action":"subscribe","kind":"profile","region":"Quellón"}
func ResultsRelayHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws results client connected", "remote", remoteAddr)

		w := &wsConn{c: c}
		subs := make(map[string]*nats.Subscription)
		relay := func(msg *nats.Msg) {
			_ = w.writeJSON(map[string]any{
				"type":    "event",
				"subject": msg.Subject,
				"data":    json.RawMessage(msg.Data),
			})
		}

		defaultSubject := natsadapter.SubjectAnalysis + ".>"
		sub, err := nc.Subscribe(defaultSubject, relay)
		if err != nil {
			slog.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[defaultSubject] = sub

		done := make(chan struct{})
		go w.keepAlive(done)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m relayMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = w.writeJSON(wsError("invalid JSON"))
				continue
			}

			var prefix string
			switch m.Kind {
			case "", "analysis":
				prefix = natsadapter.SubjectAnalysis
			case "profile":
				prefix = natsadapter.SubjectProfile
			default:
				_ = w.writeJSON(wsError("unknown kind: " + m.Kind))
				continue
			}
			subject := prefix + ".>"
			if m.Region != "" {
				subject = prefix + "." + natsadapter.SubjectToken(m.Region)
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = w.writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = w.writeJSON(wsError("subscribe failed: " + err.Error()))
					continue
				}
				subs[subject] = s
				_ = w.writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = w.writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = w.writeJSON(wsError("not subscribed to " + subject))
				}

			default:
				_ = w.writeJSON(wsError("unknown action: " + m.Action))
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws results client disconnected", "remote", remoteAddr)
	}
}

// offer hands body to an idle worker. jobs is unbuffered, so it fails while
// the worker is busy.
func offer(jobs chan<- analysisBody, body analysisBody) bool {
	select {
	case jobs <- body:
		return true
	default:
		return false
	}
}
