package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jengzang/bikeshare-insights-go/internal/logging"
	"github.com/jengzang/bikeshare-insights-go/internal/service"
	"github.com/jengzang/bikeshare-insights-go/internal/timelapse"
)

const (
	maxControlSize = 512
	writeWait      = 5 * time.Second
)

// Stream message types
const (
	MessageFrame  = "frame"
	MessageStatus = "status"
	MessageDone   = "done"
	MessageError  = "error"
)

// Control actions accepted from the client
const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionCancel = "cancel"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:    1024,
	WriteBufferSize:   4096,
	EnableCompression: true,
}

// StreamMessage is sent to websocket clients
type StreamMessage struct {
	Type      string            `json:"type"`
	Frame     *service.Frame    `json:"frame,omitempty"`
	Status    *timelapse.Status `json:"status,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// ControlMessage is a client request to pause, resume or cancel the run.
// Bare text ("pause") is accepted too.
type ControlMessage struct {
	Action string `json:"action"`
}

func parseControl(data []byte) string {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err == nil && msg.Action != "" {
		return strings.ToLower(strings.TrimSpace(msg.Action))
	}
	return strings.ToLower(strings.TrimSpace(string(data)))
}

// Stream handles GET /api/v1/timelapse/stream?from=&day=
// It starts a run, sends one frame per frameDelay and accepts control
// messages until the run ends, is cancelled or the client goes away.
func (h *TimelapseHandler) Stream(c *gin.Context) {
	if err := h.start(c); err != nil {
		fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.LogError(h.logger, "websocket_upgrade_failed", err)
		h.timelapse.Cancel()
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxControlSize)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	controls := make(chan string, 8)
	go readControls(conn, controls, cancel)

	s := &stream{conn: conn, svc: h.timelapse, logger: h.logger}
	s.run(ctx, controls, h.frameDelay)
}

// readControls forwards client messages until the connection fails
func readControls(conn *websocket.Conn, out chan<- string, cancel context.CancelFunc) {
	defer cancel()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case out <- parseControl(data):
		default:
		}
	}
}

// stream is the single writer on a websocket connection
type stream struct {
	conn   *websocket.Conn
	svc    *service.TimelapseService
	logger *slog.Logger
}

func (s *stream) run(ctx context.Context, controls <-chan string, delay time.Duration) {
	frame, ok, err := s.svc.Current(ctx)
	if err != nil {
		s.sendError(err)
		return
	}
	if ok && s.sendFrame(frame) != nil {
		s.svc.Pause()
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// client went away; keep the position for a REST resume
			s.svc.Pause()
			return

		case action := <-controls:
			switch action {
			case ActionPause:
				s.svc.Pause()
			case ActionResume:
				if err := s.svc.Resume(); err != nil {
					s.sendError(err)
					continue
				}
			case ActionCancel:
				s.svc.Cancel()
				s.finish()
				return
			default:
				s.send(StreamMessage{Type: MessageError, Error: "unknown action " + action})
				continue
			}
			s.sendStatus()

		case <-timer.C:
			timer.Reset(delay)

			status := s.svc.Status()
			if status.State != timelapse.Playing {
				if status.Resumable {
					continue
				}
				s.finish()
				return
			}

			frame, ok, err := s.svc.Step(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.sendError(err)
				return
			}
			if ok {
				if s.sendFrame(frame) != nil {
					s.svc.Pause()
					return
				}
				continue
			}
			if st := s.svc.Status(); st.State == timelapse.Idle && !st.Resumable {
				s.finish()
				return
			}
		}
	}
}

func (s *stream) send(msg StreamMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		logging.LogError(s.logger, "websocket_write_failed", err, slog.String("type", msg.Type))
		return err
	}
	return nil
}

func (s *stream) sendFrame(frame service.Frame) error {
	return s.send(StreamMessage{Type: MessageFrame, Frame: &frame})
}

func (s *stream) sendStatus() {
	status := s.svc.Status()
	_ = s.send(StreamMessage{Type: MessageStatus, Status: &status})
}

func (s *stream) sendError(err error) {
	_ = s.send(StreamMessage{Type: MessageError, Error: err.Error()})
}

// finish reports the final status and closes the connection cleanly
func (s *stream) finish() {
	status := s.svc.Status()
	if s.send(StreamMessage{Type: MessageDone, Status: &status}) != nil {
		return
	}
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "timelapse finished"),
		time.Now().Add(writeWait))
}
