package domain

import "time"

// MaxOriginalURLLength is the longest accepted original_url, in bytes.
const MaxOriginalURLLength = 2048

// ShortLink is the persisted record a create call produces. Slug is
// immutable after creation; there is no update path in this core.
type ShortLink struct {
	Slug        Slug
	OriginalURL string
	CreatedAt   time.Time
	CreatedBy   UserEmail
}

// CounterRecord is the single canonical "global" counter used to mint
// slugs. Value grows strictly by +1 per successful reservation.
type CounterRecord struct {
	Name  string
	Value uint64
}

// GlobalCounterName is the one counter name this core ever reserves.
const GlobalCounterName = "global"

// VerifiedUser is the transient result of OIDC token verification. It is
// never persisted.
type VerifiedUser struct {
	Email         UserEmail
	EmailVerified bool
	HD            string
	SubjectHash   string
}
