package respd

import (
	"sync"

	"github.com/pior/respd/resp"
)

// Store is the in-memory key/value state shared by all sessions.
// Reads take the shared lock, writes the exclusive one.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Apply executes one command against the store and returns the reply value.
// Get misses reply with the null bulk, Set with +Ok, Del with the number of
// keys actually removed.
func (s *Store) Apply(cmd resp.Cmd) resp.Value {
	switch cmd.Kind {
	case resp.CmdGet:
		return s.get(cmd.Key)
	case resp.CmdSet:
		return s.set(cmd.Key, cmd.Value)
	case resp.CmdDel:
		return s.del(cmd.Keys)
	}
	return resp.ErrorReply(resp.ErrUnknownCommand)
}

func (s *Store) get(key []byte) resp.Value {
	s.mu.RLock()
	value, ok := s.data[string(key)]
	s.mu.RUnlock()

	if !ok {
		return resp.NewNil()
	}
	return resp.NewData(value)
}

func (s *Store) set(key, value []byte) resp.Value {
	s.mu.Lock()
	s.data[string(key)] = value
	s.mu.Unlock()

	return resp.NewOkay()
}

func (s *Store) del(keys resp.Arguments[[]byte]) resp.Value {
	var removed int64

	s.mu.Lock()
	for key := range keys.Iter() {
		if _, ok := s.data[string(key)]; ok {
			delete(s.data, string(key))
			removed++
		}
	}
	s.mu.Unlock()

	return resp.NewInt(removed)
}

// Len reports the number of keys currently stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
