package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-balancer/internal/engine"
	"github.com/DoyleJ11/lol-balancer/internal/hub"
	"github.com/DoyleJ11/lol-balancer/internal/lobby"
	"github.com/DoyleJ11/lol-balancer/internal/types"
)

var errUnknownType = errors.New("unknown type")

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		lb, err := h.Lookup(r.Context(), code)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan lobby.Snapshot, 8)
		clientID := uuid.NewString()
		log := log.With(zap.String("lobby", code), zap.String("client", clientID))

		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out}:
		case <-lb.Done():
			conn.Close(websocket.StatusGoingAway, "lobby closed")
			return
		}
		log.Debug("client joined")
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
			log.Debug("client left")
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &snap}
				if err := write(writeCtx, conn, msg); err != nil {
					log.Debug("snapshot write failed", zap.Error(err))
					return
				}
			}
			// Outbox closed: lobby shut down or dropped us as too slow.
			writeCancel()
			conn.Close(websocket.StatusGoingAway, "lobby closed")
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(writeCtx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(writeCtx, conn, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			cmd, err := toEngineCommand(cm)
			if err != nil {
				_ = write(writeCtx, conn, types.ServerMessage{Type: "Error", Error: err.Error()})
				continue
			}

			res, err := lb.Do(writeCtx, cmd)
			if err != nil {
				return
			}
			if res.Err != nil {
				_ = write(writeCtx, conn, types.ServerMessage{Type: "Error", Version: res.Version, Error: res.Err.Error()})
			}
			// The change already went out in the snapshot; only the save failed.
			if res.PersistErr != nil {
				_ = write(writeCtx, conn, types.ServerMessage{Type: "Error", Version: res.Version, Error: "not saved: " + res.PersistErr.Error()})
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func toEngineCommand(m types.ClientMessage) (engine.Command, error) {
	switch m.Type {
	case "Register":
		if m.Participant == nil {
			return engine.Command{}, fmt.Errorf("%w: missing participant", engine.ErrValidation)
		}
		return engine.Command{Type: engine.CmdRegisterParticipant, Participant: *m.Participant}, nil
	case "Update":
		if m.Participant == nil {
			return engine.Command{}, fmt.Errorf("%w: missing participant", engine.ErrValidation)
		}
		return engine.Command{Type: engine.CmdUpdateParticipant, Name: m.Name, Participant: *m.Participant}, nil
	case "Remove":
		return engine.Command{Type: engine.CmdRemoveParticipant, Name: m.Name}, nil
	case "Assign":
		role, ok := engine.ParseRole(m.Role)
		if !ok {
			return engine.Command{}, fmt.Errorf("%w: unknown role %q", engine.ErrValidation, m.Role)
		}
		side, ok := engine.ParseSide(m.Side)
		if !ok {
			return engine.Command{}, fmt.Errorf("%w: unknown side %q", engine.ErrValidation, m.Side)
		}
		return engine.Command{Type: engine.CmdAssignSlot, Role: role, Side: side, Name: m.Name}, nil
	case "RecordMatch":
		winner, ok := engine.ParseSide(m.Winner)
		if !ok {
			return engine.Command{}, fmt.Errorf("%w: unknown winner %q", engine.ErrValidation, m.Winner)
		}
		return engine.Command{Type: engine.CmdRecordMatch, Side: winner}, nil
	default:
		return engine.Command{}, errUnknownType
	}
}
