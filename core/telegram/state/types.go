package state

// Store is the one-slot-per-user memory used by update handlers.
type Store interface {
	// Put records value as the pending selection of userID, replacing any previous one.
	Put(userID int64, value string)
	// Take returns the pending selection of userID and clears it in the same step.
	Take(userID int64) (string, bool)
	// Peek returns the pending selection without clearing it.
	Peek(userID int64) (string, bool)
	// Len reports how many users currently have a pending selection.
	Len() int
}
