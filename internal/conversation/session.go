package conversation

import (
	"sync"

	"github.com/shopspring/decimal"

	"movimenti/internal/core"
)

type (
	// Draft is the partially assembled movement. Fields are set one per
	// step in conversation order and only read once all five are set.
	Draft struct {
		Amount      decimal.Decimal
		AmountSet   bool
		Date        string
		Description string
		Category    string
		Class       core.Class
	}

	// Session is the per-identity conversation state. Saved is non-zero
	// only while Current is StepCancelConfirm.
	Session struct {
		Identity int64
		Current  Step
		Saved    Step
		Draft    Draft
	}
)

// Movement freezes the draft into a committable movement.
func (d Draft) Movement() core.Movement {
	return core.Movement{
		Amount:      d.Amount,
		Date:        d.Date,
		Description: d.Description,
		Category:    d.Category,
		Class:       d.Class,
	}
}

// Store owns the per-identity sessions and serializes transitions: the
// engine holds an identity's lock for the whole read-then-write of a
// transition, so out-of-order or concurrent messages for the same
// identity never interleave.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Acquire locks the identity and returns its release func.
func (st *Store) Acquire(identity int64) func() {
	st.mu.Lock()
	l, ok := st.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		st.locks[identity] = l
	}
	st.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Get returns the identity's session, or nil when none is active.
func (st *Store) Get(identity int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[identity]
}

// Reset discards any existing session and starts a fresh one at
// StepChoosing.
func (st *Store) Reset(identity int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := &Session{Identity: identity, Current: StepChoosing}
	st.sessions[identity] = s
	return s
}

// Clear drops the identity's session (terminal state).
func (st *Store) Clear(identity int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, identity)
}
