package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"time"
)

// ErrInvalidToken is returned for payloads that cannot be decoded or that
// miss required fields.
var ErrInvalidToken = errors.New("invalid session token")

// Token is the self-contained descriptor of one attendance session. It
// embeds its own issuance time, so a decoded token is verifiable without
// consulting the course's current session pointer.
type Token struct {
	CourseID  string    `json:"courseId"`
	SessionID string    `json:"sessionId"`
	IssuedAt  time.Time `json:"timestamp"`
}

// Encode serializes the token as URL-safe base64 over JSON, fit for QR
// payloads and query parameters.
func (t Token) Encode() string {
	raw, _ := json.Marshal(t)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ScannerURL builds the student scanner link carrying the raw JSON payload,
// the form embedded in the QR image.
func (t Token) ScannerURL(baseURL string) string {
	raw, _ := json.Marshal(t)
	return baseURL + "/student?data=" + url.QueryEscape(string(raw))
}

// Decode parses a presented token. Both transports are accepted: URL-safe
// base64 and plain JSON (as extracted from a scanner URL's data parameter).
func Decode(payload string) (Token, error) {
	raw := []byte(payload)
	if decoded, err := base64.RawURLEncoding.DecodeString(payload); err == nil {
		raw = decoded
	}
	var t Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return Token{}, ErrInvalidToken
	}
	if t.CourseID == "" || t.SessionID == "" || t.IssuedAt.IsZero() {
		return Token{}, ErrInvalidToken
	}
	return t, nil
}
