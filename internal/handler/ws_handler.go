package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fluentia/exam-engine/internal/engine"
	"github.com/fluentia/exam-engine/internal/middleware"
	"github.com/fluentia/exam-engine/internal/model"
	ws "github.com/fluentia/exam-engine/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams session state to the client and receives media events
// and answers in return.
type WSHandler struct {
	manager  *engine.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *engine.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/attempts/exams/:exam_id/stream
// Pushes ticks and phase transitions; accepts media events, answers and skip.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	sess, ok := h.manager.Get(examID, claims.Namespace())
	if !ok {
		conn.WriteError("no open attempt for this exam")
		return
	}

	wsLog := h.log.With().
		Str("namespace", claims.Namespace()).
		Str("exam_id", examID.String()).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	events, unsubscribe := sess.Events().Subscribe()
	defer unsubscribe()

	// Relay engine events until unsubscribe closes the channel. The conn's
	// write lock serializes these against replies from the read loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if err := conn.WriteTyped(translateEvent(sess, ev)); err != nil {
				return
			}
		}
	}()

	// Initial state so the client renders without waiting for the next tick.
	st := sess.State()
	conn.WriteTyped(ws.StateResponse{
		Event:      ws.EventState,
		Phase:      string(st.Phase),
		ActivePart: st.ActivePart,
		TimeKind:   string(st.Time.Kind),
		Seconds:    st.Time.Seconds,
	})

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionMedia:
			h.handleMedia(conn, sess, &msg)
		case ws.ActionAnswer:
			h.handleAnswer(conn, sess, &msg)
		case ws.ActionSkip:
			if err := sess.Skip(context.Background()); err != nil {
				conn.WriteError(err.Error())
			}
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}

	unsubscribe()
	<-done
}

// handleMedia feeds a client audio element event into the session machine.
func (h *WSHandler) handleMedia(conn *ws.Conn, sess *engine.Session, msg *ws.RequestPayload) {
	kind := engine.MediaEventKind(msg.Kind)
	switch kind {
	case engine.MediaTimeUpdate, engine.MediaEnded, engine.MediaError:
	default:
		conn.WriteError("unknown media event kind: " + msg.Kind)
		return
	}

	sess.OnMediaEvent(context.Background(), engine.MediaEvent{
		Kind:     kind,
		Position: msg.Position,
	})
}

// handleAnswer saves a single answer through the session.
func (h *WSHandler) handleAnswer(conn *ws.Conn, sess *engine.Session, msg *ws.RequestPayload) {
	if msg.QID == "" {
		conn.WriteError("q_id is required")
		return
	}
	if err := sess.SetAnswer(context.Background(), msg.QID, msg.Answer); err != nil {
		conn.WriteError(err.Error())
	}
}

// translateEvent converts an engine StateEvent into its wire shape.
func translateEvent(sess *engine.Session, ev engine.StateEvent) interface{} {
	switch {
	case ev.ResultID != "":
		result := model.SubmissionResult{ResultID: ev.ResultID}
		return ws.FinishedResponse{
			Event:    ws.EventFinished,
			ResultID: result.ResultID,
			ViewPath: result.ViewPath(sess.Mode()),
		}
	case ev.Error != "":
		return ws.ErrorResponse{Event: ws.EventError, Error: ev.Error}
	default:
		return ws.StateResponse{
			Event:      ws.EventState,
			Phase:      string(ev.Phase),
			ActivePart: ev.ActivePart,
			TimeKind:   string(ev.Time.Kind),
			Seconds:    ev.Time.Seconds,
			AudioSrc:   ev.AudioSrc,
		}
	}
}
