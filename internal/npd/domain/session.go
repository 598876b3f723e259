package domain

import "time"

// Session is a persisted taxpayer session. Both tokens are stored sealed and
// only the service layer can open them.
type Session struct {
	INN                string
	DeviceID           string
	SealedToken        []byte
	SealedRefreshToken []byte
	TokenExpiresAt     time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
