package zkm

import "errors"

var (
	// Ошибки хранилища
	ErrStoreNotFound   = errors.New("store not found")
	ErrStoreCorrupted  = errors.New("store is corrupted")
	ErrInvalidPassword = errors.New("invalid password")
	ErrNoActiveSession = errors.New("no active session")

	// Ошибки ключей
	ErrKeyExists   = errors.New("key already exists")
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyDeleted  = errors.New("key is deleted")
	ErrKeyTooLarge = errors.New("key material is too large")

	// Ошибки операций
	ErrPurposeNotAllowed = errors.New("purpose is not allowed for this key")
	ErrUnsupportedAlgo   = errors.New("unsupported digest algorithm")

	ErrSessionExpired  = errors.New("session expired")
	ErrSessionInactive = errors.New("session is inactive")
)
