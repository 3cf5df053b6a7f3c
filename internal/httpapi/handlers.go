package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-balancer/internal/document"
	"github.com/DoyleJ11/lol-balancer/internal/engine"
	"github.com/DoyleJ11/lol-balancer/internal/hub"
	"github.com/DoyleJ11/lol-balancer/internal/lobby"
	"github.com/DoyleJ11/lol-balancer/internal/store"
)

const maxDocumentBytes = 1 << 20

// Deps carries what the handlers need besides the hub.
type Deps struct {
	Hub        *hub.Hub
	Store      store.Store // nil means lobbies start empty and never save
	DefaultKey string
	Timeout    time.Duration // bound on store loads
	Log        *zap.Logger
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createLobbyRequest struct {
	RosterKey string `json:"roster_key"`
}

type createLobbyResponse struct {
	Code    string `json:"code"`
	Warning string `json:"warning,omitempty"`
}

func CreateLobby(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLobbyRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "bad json")
				return
			}
		}
		key := req.RosterKey
		if key == "" {
			key = d.DefaultKey
		}

		state, warning, err := loadInitial(r.Context(), d, key)
		if err != nil {
			d.Log.Error("load roster failed", zap.String("key", key), zap.Error(err))
			writeEngineError(w, err)
			return
		}
		if warning != "" {
			d.Log.Warn("starting with an empty roster", zap.String("key", key), zap.String("reason", warning))
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			existing, err := d.Hub.Lookup(r.Context(), c)
			if err != nil {
				writeEngineError(w, err)
				return
			}
			if existing == nil {
				code = c
				break
			}
			d.Log.Debug("collision on code, regenerating", zap.String("code", c))
		}

		lb, err := d.Hub.Ensure(r.Context(), code, key, state)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if lb == nil {
			writeError(w, http.StatusInternalServerError, "failed to create lobby")
			return
		}

		writeJSON(w, http.StatusCreated, createLobbyResponse{Code: code, Warning: warning})
	}
}

// loadInitial reads the stored roster for key. A malformed stored document is
// not fatal: the lobby starts empty and the problem comes back as a warning.
func loadInitial(ctx context.Context, d Deps, key string) (engine.State, string, error) {
	if err := store.ValidateKey(key); err != nil {
		return engine.State{}, "", err
	}
	if d.Store == nil {
		return engine.NewEmptyState(), "", nil
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	r, err := d.Store.Load(ctx, key)
	switch {
	case errors.Is(err, document.ErrDocument):
		return engine.NewEmptyState(), err.Error(), nil
	case err != nil:
		return engine.State{}, "", err
	}
	return engine.NewState(r), "", nil
}

func RemoveLobby(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := lobbyFor(w, r, d); !ok {
			return
		}
		if err := d.Hub.Remove(r.Context(), chi.URLParam(r, "code")); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSnapshot(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFor(w, r, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, view.Snapshot)
	}
}

func RegisterParticipant(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p engine.Participant
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		do(w, r, d, engine.Command{Type: engine.CmdRegisterParticipant, Participant: p}, http.StatusCreated)
	}
}

func UpdateParticipant(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := pathParam(w, r, "name")
		if !ok {
			return
		}
		var p engine.Participant
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		do(w, r, d, engine.Command{Type: engine.CmdUpdateParticipant, Name: name, Participant: p}, http.StatusOK)
	}
}

func RemoveParticipant(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := pathParam(w, r, "name")
		if !ok {
			return
		}
		do(w, r, d, engine.Command{Type: engine.CmdRemoveParticipant, Name: name}, http.StatusOK)
	}
}

type assignRequest struct {
	Name string `json:"name"`
}

func AssignSlot(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, side, ok := fieldFor(w, r)
		if !ok {
			return
		}
		var req assignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		do(w, r, d, engine.Command{Type: engine.CmdAssignSlot, Role: role, Side: side, Name: req.Name}, http.StatusOK)
	}
}

func Candidates(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, side, ok := fieldFor(w, r)
		if !ok {
			return
		}
		view, ok := viewFor(w, r, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, view.Snapshot.Candidates[role][side])
	}
}

type recordMatchRequest struct {
	Winner string `json:"winner"`
}

func RecordMatch(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		winner, ok := engine.ParseSide(req.Winner)
		if !ok {
			writeError(w, http.StatusBadRequest, "winner must be RED or BLUE")
			return
		}
		do(w, r, d, engine.Command{Type: engine.CmdRecordMatch, Side: winner}, http.StatusOK)
	}
}

func ListMatches(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := lobbyFor(w, r, d)
		if !ok {
			return
		}
		ml, ok := lb.MatchLog()
		if !ok {
			writeError(w, http.StatusNotImplemented, store.ErrNoMatchLog.Error())
			return
		}
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "bad limit")
				return
			}
			limit = n
		}
		view, err := lb.View(r.Context())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		matches, err := ml.ListMatches(r.Context(), view.Key, limit)
		if err != nil {
			d.Log.Error("list matches failed", zap.String("key", view.Key), zap.Error(err))
			writeEngineError(w, err)
			return
		}
		if matches == nil {
			matches = []store.MatchRecord{}
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func Standings(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFor(w, r, d)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, view.Snapshot.Standings)
	}
}

func ExportDocument(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := viewFor(w, r, d)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := document.Write(w, view.Roster); err != nil {
			d.Log.Warn("export document failed", zap.Error(err))
		}
	}
}

func ReloadDocument(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := lobbyFor(w, r, d)
		if !ok {
			return
		}
		data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		source := r.URL.Query().Get("source")
		if source == "" {
			source = "upload"
		}
		// roster_key switches the lobby to another stored roster; the one it
		// was saving to is left untouched.
		key := r.URL.Query().Get("roster_key")
		if key != "" {
			if err := store.ValidateKey(key); err != nil {
				writeEngineError(w, err)
				return
			}
		}
		res, err := lb.ReloadDocument(r.Context(), source, data, key)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeResult(w, d, http.StatusOK, res)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type mutationResponse struct {
	Version      int            `json:"version"`
	Events       []engine.Event `json:"events"`
	PersistError string         `json:"persist_error,omitempty"`
}

func do(w http.ResponseWriter, r *http.Request, d Deps, cmd engine.Command, okStatus int) {
	lb, ok := lobbyFor(w, r, d)
	if !ok {
		return
	}
	res, err := lb.Do(r.Context(), cmd)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, d, okStatus, res)
}

func writeResult(w http.ResponseWriter, d Deps, okStatus int, res lobby.Result) {
	if res.Err != nil {
		writeEngineError(w, res.Err)
		return
	}
	out := mutationResponse{Version: res.Version, Events: res.Events}
	if res.PersistErr != nil {
		d.Log.Warn("change applied but not saved", zap.Int("version", res.Version), zap.Error(res.PersistErr))
		out.PersistError = res.PersistErr.Error()
	}
	if out.Events == nil {
		out.Events = []engine.Event{}
	}
	writeJSON(w, okStatus, out)
}

func lobbyFor(w http.ResponseWriter, r *http.Request, d Deps) (*lobby.Lobby, bool) {
	lb, err := d.Hub.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeEngineError(w, err)
		return nil, false
	}
	if lb == nil {
		writeError(w, http.StatusNotFound, "lobby not found")
		return nil, false
	}
	return lb, true
}

func viewFor(w http.ResponseWriter, r *http.Request, d Deps) (lobby.View, bool) {
	lb, ok := lobbyFor(w, r, d)
	if !ok {
		return lobby.View{}, false
	}
	view, err := lb.View(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return lobby.View{}, false
	}
	return view, true
}

func fieldFor(w http.ResponseWriter, r *http.Request) (engine.Role, engine.Side, bool) {
	role, ok := engine.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown role")
		return "", "", false
	}
	side, ok := engine.ParseSide(chi.URLParam(r, "side"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown side")
		return "", "", false
	}
	return role, side, true
}

// pathParam returns a decoded route parameter. chi matches on RawPath when
// the request has one, and only then is the parameter still escaped.
func pathParam(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, true
	}
	v, err := url.PathUnescape(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad "+key)
		return "", false
	}
	return v, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrValidation),
		errors.Is(err, engine.ErrUnsupportedCommand),
		errors.Is(err, store.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, lobby.ErrClosed):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrDuplicateName),
		errors.Is(err, engine.ErrNotRecordable):
		return http.StatusConflict
	case errors.Is(err, document.ErrDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, hub.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
