package handler

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type streamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type StreamHandler struct {
	workspaces Workspaces
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

func NewStreamHandler(workspaces Workspaces, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		workspaces: workspaces,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log: log.With().Str("component", "stream").Logger(),
	}
}

// Stream pushes a snapshot of the view after every change and each
// notification as it is raised, until the client goes away.
func (h *StreamHandler) Stream(c echo.Context) error {
	_, ws, err := ctxWorkspace(c, h.workspaces)
	if err != nil {
		return err
	}
	view := c.Param("view")
	changes, cancelChanges, err := ws.Changes(view)
	if err != nil {
		return err
	}
	defer cancelChanges()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("upgrade")
		return nil
	}
	defer conn.Close()

	notes, cancelNotes := ws.Notifier.Subscribe()
	defer cancelNotes()

	gone := make(chan struct{})
	go h.readLoop(conn, gone)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	log := h.log.With().Str("session_id", ws.SessionID).Str("view", view).Logger()
	log.Debug().Msg("stream opened")
	defer log.Debug().Msg("stream closed")

	for {
		select {
		case <-gone:
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			snap, err := ws.Snapshot(view)
			if err != nil {
				return nil
			}
			if err := write(conn, streamMessage{Type: "snapshot", Data: snap}); err != nil {
				return nil
			}
		case note, ok := <-notes:
			if !ok {
				return nil
			}
			if err := write(conn, streamMessage{Type: "notification", Data: note}); err != nil {
				return nil
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

// readLoop consumes control frames and reports when the peer is gone.
func (h *StreamHandler) readLoop(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func write(conn *websocket.Conn, msg streamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
