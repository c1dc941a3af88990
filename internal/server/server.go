// Package server is the transport boundary: a websocket endpoint that
// decodes commands into the room coordinator, plus a health probe. Handlers
// never touch game state directly; they only forward commands and report
// the results.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/events"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
	"github.com/dankraus/sabacc-online-sub000/internal/rooms"
)

// Server carries the shared coordinator into the HTTP handlers.
type Server struct {
	Coordinator *rooms.Coordinator
}

func New(coord *rooms.Coordinator) *Server {
	return &Server{Coordinator: coord}
}

// Routes builds the HTTP mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleWS owns one client connection. The first message must be a joinRoom
// command; with a player id set it is treated as a reconnect to an existing
// seat. Every later command is stamped with the authoritative room and
// player ids before dispatch, so clients cannot act for other seats.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logrus.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	var join models.Command
	if err := wsjson.Read(ctx, conn, &join); err != nil {
		return
	}
	if join.Type != models.CmdJoinRoom || join.RoomID == "" {
		wsjson.Write(ctx, conn, events.GameEvent{
			Type:  events.EventErrorOccurred,
			Error: &events.ErrorPayload{Message: "first message must be joinRoom with a room id"},
		})
		conn.Close(websocket.StatusPolicyViolation, "join required")
		return
	}

	room, player, err := s.seat(join, conn)
	if err != nil {
		wsjson.Write(ctx, conn, events.GameEvent{
			Type:  events.EventErrorOccurred,
			Error: &events.ErrorPayload{Message: err.Error()},
		})
		conn.Close(websocket.StatusPolicyViolation, "join rejected")
		return
	}
	log := logrus.WithFields(logrus.Fields{"room": room.ID, "player": player.ID})
	log.Info("client connected")

	for {
		var cmd models.Command
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				log.Info("client disconnected")
			} else {
				log.WithError(err).Info("client read failed")
			}
			s.Coordinator.MarkDisconnected(room.ID, player.ID)
			return
		}
		cmd.RoomID = room.ID
		cmd.PlayerID = player.ID

		if cmd.Type == models.CmdLeaveRoom {
			if err := s.Coordinator.LeaveRoom(room.ID, player.ID); err != nil {
				log.WithError(err).Warn("leave failed")
			}
			conn.Close(websocket.StatusNormalClosure, "left room")
			return
		}
		if err := s.Coordinator.Dispatch(cmd); err != nil {
			// Already echoed to the caller as errorOccurred by Dispatch.
			log.WithError(err).WithField("cmd", cmd.Type).Debug("command rejected")
		}
	}
}

func (s *Server) seat(join models.Command, conn *websocket.Conn) (*rooms.Room, *models.Player, error) {
	if join.PlayerID != uuid.Nil {
		return s.Coordinator.Reconnect(join.RoomID, join.PlayerID, conn)
	}
	room, player, err := s.Coordinator.JoinRoom(join.RoomID, join.Name, conn)
	if err != nil {
		return nil, nil, err
	}
	return room, player, nil
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then drains
// with a short grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logrus.WithField("addr", addr).Info("listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
