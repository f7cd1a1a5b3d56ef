package entitlement

import (
	"context"
	"errors"
	"sync"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

// ErrSessionClosed сессия закрыта, её состояние больше не изменится.
var ErrSessionClosed = errors.New("session closed")

// State снимок сессии. Пока Loading=true, защищённое содержимое показывать нельзя.
type State struct {
	Identity models.Identity
	Record   *models.AccessRecord
	Loading  bool
}

// Session отслеживает личность пользователя одной клиентской сессии и
// разрешает её права доступа. Смена личности отменяет незавершённое
// разрешение, а его результат отбрасывается.
type Session struct {
	resolver AccessResolver

	mu         sync.Mutex
	gen        uint64
	cancel     context.CancelFunc
	state      State
	done       chan struct{}
	doneClosed bool
	closed     bool
}

// NewSession создаёт сессию без личности в состоянии загрузки.
func NewSession(resolver AccessResolver) *Session {
	return &Session{
		resolver: resolver,
		state:    State{Loading: true},
		done:     make(chan struct{}),
	}
}

// SetIdentity начинает новое разрешение прав доступа для id.
// После Close ничего не делает.
func (s *Session) SetIdentity(ctx context.Context, id models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	// будим ожидающих предыдущего поколения, они перечитают состояние
	if !s.doneClosed {
		close(s.done)
	}

	s.gen++
	gen := s.gen
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = State{Identity: id, Loading: true}
	s.done = make(chan struct{})
	s.doneClosed = false

	go s.run(rctx, gen, id)
}

// Refresh заново разрешает права доступа текущей личности.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	id := s.state.Identity
	s.mu.Unlock()
	s.SetIdentity(ctx, id)
}

func (s *Session) run(ctx context.Context, gen uint64, id models.Identity) {
	rec := s.resolver.Resolve(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed || ctx.Err() != nil {
		return
	}
	s.state.Record = &rec
	s.state.Loading = false
	s.cancel()
	s.cancel = nil
	close(s.done)
	s.doneClosed = true
}

// Snapshot возвращает текущее состояние сессии.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Await ждёт завершения разрешения текущей личности. Если сессия закрыта
// до завершения, возвращает ErrSessionClosed.
func (s *Session) Await(ctx context.Context) (State, error) {
	for {
		s.mu.Lock()
		st, done, closed := s.state, s.done, s.closed
		s.mu.Unlock()

		if !st.Loading {
			return st, nil
		}
		if closed {
			return st, ErrSessionClosed
		}
		select {
		case <-done:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Close отменяет незавершённое разрешение и будит всех, кто его ждёт.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if !s.doneClosed {
		close(s.done)
		s.doneClosed = true
	}
}
