package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-balancer/internal/document"
	"github.com/DoyleJ11/lol-balancer/internal/engine"
	"github.com/DoyleJ11/lol-balancer/internal/store"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	Cmd   engine.Command
	Reply chan Result // optional, buffered by the sender
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Reload replaces the roster with a parsed document. A bad document leaves
// the current roster untouched. A non-empty Key switches where the lobby
// saves from then on; the roster stored under the old key is left as is.
type Reload struct {
	Source string
	Data   []byte
	Key    string
	Reply  chan Result
}

func (Reload) isLobbyMsg() {}

// Result answers a FromClient or Reload.
type Result struct {
	Version int
	Events  []engine.Event
	Err     error
	// PersistErr is set when the mutation succeeded but saving it failed.
	PersistErr error
}

type Snapshot struct {
	Version      int                                      `json:"version"`
	Participants []engine.Participant                     `json:"participants"`
	Board        engine.Board                             `json:"board"`
	Report       engine.Report                            `json:"report"`
	Candidates   map[engine.Role]map[engine.Side][]string `json:"candidates"`
	Standings    []engine.Standing                        `json:"standings"`
}

type View struct {
	Version    int
	Key        string // roster key the lobby saves under
	NumClients int
	Snapshot   Snapshot
	Roster     *engine.Roster // a copy; safe to read outside the lobby
}

type Lobby struct {
	inbox   chan Msg
	state   engine.State
	version int
	current Snapshot
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc

	store       store.Store
	key         string
	saveTimeout time.Duration
	log         *zap.Logger
	now         func() time.Time
}

type Option func(*Lobby)

// WithStore makes the lobby save its roster under key after every mutation.
func WithStore(s store.Store, key string) Option {
	return func(l *Lobby) {
		l.store = s
		l.key = key
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Lobby) { l.log = log }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(l *Lobby) { l.saveTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(l *Lobby) { l.now = now }
}

func NewLobby(parent context.Context, initial engine.State, opts ...Option) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	if initial.Roster == nil {
		initial = engine.NewState(nil)
	}
	l := &Lobby{
		inbox:       make(chan Msg, 64), // Small buffer
		state:       initial,
		version:     0,
		clients:     make(map[string]chan Snapshot),
		ctx:         ctx,
		cancel:      cancel,
		saveTimeout: 5 * time.Second,
		log:         zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.current = l.snapshot()

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- l.current

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				res := l.apply(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- res
				}

			case Reload:
				res := l.reload(msg.Source, msg.Data, msg.Key)
				if msg.Reply != nil {
					msg.Reply <- res
				}

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					Key:        l.key,
					NumClients: len(l.clients),
					Snapshot:   l.current,
					Roster:     l.state.Roster.Clone(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) apply(cmd engine.Command) Result {
	events, newState, err := engine.Apply(l.state, cmd)
	if err != nil {
		l.log.Debug("command rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return Result{Version: l.version, Err: err}
	}
	return l.commit(newState, events)
}

func (l *Lobby) reload(source string, data []byte, key string) Result {
	if key != "" {
		if err := store.ValidateKey(key); err != nil {
			return Result{Version: l.version, Err: err}
		}
	}
	r, err := document.ParseNamed(source, data)
	if err != nil {
		l.log.Warn("reload rejected", zap.String("source", source), zap.Error(err))
		return Result{Version: l.version, Err: err}
	}
	events, newState, err := engine.Apply(l.state, engine.Command{Type: engine.CmdReplaceRoster, Roster: r})
	if err != nil {
		return Result{Version: l.version, Err: err}
	}
	if key != "" && key != l.key {
		l.log.Info("switching roster", zap.String("from", l.key), zap.String("to", key))
		l.key = key
	}
	return l.commit(newState, events)
}

// commit installs a new state, rebuilds every derived view from it and
// broadcasts before anything else is read. Saving happens last.
func (l *Lobby) commit(newState engine.State, events []engine.Event) Result {
	l.state = newState
	l.version++
	l.current = l.snapshot()
	l.broadcast(l.current)

	res := Result{Version: l.version, Events: events}
	res.PersistErr = l.persist(events)
	return res
}

func (l *Lobby) persist(events []engine.Event) error {
	if l.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(l.ctx, l.saveTimeout)
	defer cancel()

	if err := l.store.Save(ctx, l.key, l.state.Roster); err != nil {
		l.log.Error("save roster failed", zap.String("key", l.key), zap.Error(err))
		return err
	}

	matchLog, ok := l.store.(store.MatchLog)
	if !ok {
		return nil
	}
	for _, e := range events {
		if e.Type != engine.EvtMatchRecorded || e.Result == nil {
			continue
		}
		if err := matchLog.AppendMatch(ctx, l.key, store.NewMatchRecord(*e.Result, l.now())); err != nil {
			l.log.Error("append match failed", zap.String("key", l.key), zap.Error(err))
			return err
		}
		l.log.Info("match recorded", zap.String("key", l.key), zap.String("winner", string(e.Result.Winner)))
	}
	return nil
}

func (l *Lobby) snapshot() Snapshot {
	s := l.state
	snap := Snapshot{
		Version:      l.version,
		Participants: make([]engine.Participant, 0, s.Roster.Len()),
		Board:        s.Board,
		Report:       engine.Evaluate(s.Board, s.Roster),
		Candidates:   make(map[engine.Role]map[engine.Side][]string, len(engine.Roles)),
		Standings:    engine.Standings(s.Roster),
	}
	for p := range s.Roster.ListSorted() {
		snap.Participants = append(snap.Participants, p)
	}
	for _, r := range engine.Roles {
		snap.Candidates[r] = map[engine.Side][]string{
			engine.SideRed:  s.Board.CandidatesFor(r, engine.SideRed, s.Roster),
			engine.SideBlue: s.Board.CandidatesFor(r, engine.SideBlue, s.Roster),
		}
	}
	return snap
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			l.log.Info("dropping slow client", zap.String("client", id))
			close(ch)
			delete(l.clients, id)
		}
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

func (l *Lobby) send(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do sends cmd and waits for its result.
func (l *Lobby) Do(ctx context.Context, cmd engine.Command) (Result, error) {
	reply := make(chan Result, 1)
	if err := l.send(ctx, FromClient{Cmd: cmd, Reply: reply}); err != nil {
		return Result{}, err
	}
	return wait(ctx, l, reply)
}

// ReloadDocument replaces the roster with data. key may be "" to keep saving
// under the current roster key.
func (l *Lobby) ReloadDocument(ctx context.Context, source string, data []byte, key string) (Result, error) {
	reply := make(chan Result, 1)
	if err := l.send(ctx, Reload{Source: source, Data: data, Key: key, Reply: reply}); err != nil {
		return Result{}, err
	}
	return wait(ctx, l, reply)
}

func (l *Lobby) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := l.send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	return wait(ctx, l, reply)
}

func wait[T any](ctx context.Context, l *Lobby, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-l.ctx.Done():
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (l *Lobby) MatchLog() (store.MatchLog, bool) {
	ml, ok := l.store.(store.MatchLog)
	return ml, ok
}
