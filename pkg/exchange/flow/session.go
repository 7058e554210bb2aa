package flow

import "sync"

// session is one user's in-memory conversation. The mutex serializes
// that conversation's events; independent users proceed concurrently.
// Sessions are not durable: a restart loses in-flight conversations,
// the ledger rows survive.
type session struct {
	mu    sync.Mutex
	state conversationState
}

type sessionStore struct {
	mu     sync.Mutex
	byUser map[int64]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{byUser: make(map[int64]*session)}
}

// get returns the user's session, creating a fresh one at currency
// selection on first contact.
func (s *sessionStore) get(userID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byUser[userID]
	if !ok {
		sess = &session{state: selectingCurrency{}}
		s.byUser[userID] = sess
	}
	return sess
}
