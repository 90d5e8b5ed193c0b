package entity

import "encoding/json"

// User is keyed by email; there is no surrogate ID. PasswordHash and
// EncryptedGeminiKey are optional: a nil pointer means the attribute was
// never set, and every consumer must check presence before use. Profile is
// an opaque JSON document owned by the frontend.
type User struct {
	Email              string
	PasswordHash       *string
	Profile            json.RawMessage
	EncryptedGeminiKey *string
}

// HasAPIKey reports whether a Gemini key blob is stored for the user. Only
// this boolean ever leaves the backend; the blob itself does not.
func (u *User) HasAPIKey() bool {
	return u.EncryptedGeminiKey != nil && *u.EncryptedGeminiKey != ""
}
