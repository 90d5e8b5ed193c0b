package entity

import (
	"encoding/json"
	"time"
)

// Symptom is one log entry in a user's health diary. LogData is opaque to
// the backend; the frontend supplies the id so offline entries keep theirs.
type Symptom struct {
	ID        string
	UserEmail string
	LogData   json.RawMessage
	CreatedAt time.Time
}
