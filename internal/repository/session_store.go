package repository

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"sync"
)

// SessionStore holds the ordered pool of integrated session credentials, one
// opaque token per messaging account. The backing file is newline-delimited
// and rewritten wholesale on every mutation.
type SessionStore struct {
	path   string
	mu     sync.Mutex
	tokens []string
}

// NewSessionStore loads the sessions file, starting empty if missing.
func NewSessionStore(path string) (*SessionStore, error) {
	s := &SessionStore{path: path}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			s.tokens = append(s.tokens, line)
		}
	}
	return s, scanner.Err()
}

// Add appends a token to the pool. Adding a token that is already present is
// a no-op.
func (s *SessionStore) Add(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t == token {
			return nil
		}
	}
	s.tokens = append(s.tokens, token)
	return s.writeLocked()
}

// Clear empties the pool and returns how many tokens were removed.
func (s *SessionStore) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.tokens)
	s.tokens = nil
	return n, s.writeLocked()
}

// All returns a snapshot of the pool in insertion order.
func (s *SessionStore) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Count returns the current pool size.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *SessionStore) writeLocked() error {
	file, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, t := range s.tokens {
		if _, err := file.WriteString(t + "\n"); err != nil {
			return err
		}
	}
	return nil
}
