// Package localstore provides the key-value fallback storage capability used
// by the task synchronizer when the backend is unreachable. Values are opaque
// strings; callers own serialization. Keys are namespaced per user so that a
// single writer owns each namespace.
package localstore

import "fmt"

// Store is the persistent key-value capability injected into consumers.
// Implementations must tolerate reads of absent keys.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// TasksKey returns the namespace key holding a user's fallback task list.
func TasksKey(userID string) string {
	return fmt.Sprintf("todos_%s", userID)
}

// SessionKey is the key under which a client persists its current session.
const SessionKey = "session"
