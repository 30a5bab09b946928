package zkm

import (
	"sync"
	"time"

	"github.com/awnumar/memguard"
)

// Session представляет активную сессию работы с хранилищем ключей.
// KEK лежит в locked buffer memguard до закрытия сессии.
type Session struct {
	mu sync.RWMutex

	kek        *memguard.LockedBuffer
	createdAt  time.Time
	accessedAt time.Time
	isActive   bool
	storeID    string
}

// NewSession создает сессию из уже расшифрованного KEK.
func NewSession(storeID string, kek [32]byte) *Session {
	now := time.Now()
	return &Session{
		kek:        memguard.NewBufferFromBytes(kek[:]),
		createdAt:  now,
		accessedAt: now,
		isActive:   true,
		storeID:    storeID,
	}
}

// KEK returns the protected key-encryption key and refreshes the
// access time.
func (s *Session) KEK() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessedAt = time.Now()
	return s.kek.Data()
}

func (s *Session) StoreID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.storeID
}

func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return time.Since(s.accessedAt) > timeout
}

func (s *Session) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.isActive
}

// Close уничтожает KEK в памяти. Сессия после этого неактивна.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isActive {
		return
	}

	s.kek.Destroy()
	s.isActive = false
}
