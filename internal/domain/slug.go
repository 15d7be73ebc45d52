package domain

import (
	"strings"

	"github.com/sundayezeilo/urlshortener/internal/errx"
)

const (
	// MinSlugLength and MaxSlugLength bound any Slug, generated or custom.
	MinSlugLength = 1
	MaxSlugLength = 64

	// MinAliasLength and MaxAliasLength further bound a user-supplied alias.
	MinAliasLength = 3
	MaxAliasLength = 32
)

// Slug is a validated short-link identifier drawn from [0-9A-Za-z_-].
// It is case-sensitive and can only be constructed through NewSlug or
// NewAlias, so a Slug value in hand is always policy-compliant.
type Slug struct {
	value string
}

// NewSlug validates s against the generic slug policy (length 1..64,
// charset [0-9A-Za-z_-]) and wraps it. Used for generated slugs.
func NewSlug(s string) (Slug, error) {
	const op = "domain.NewSlug"
	if err := validateSlugChars(s, MinSlugLength, MaxSlugLength); err != nil {
		return Slug{}, errx.E(op, errx.Invalid, err)
	}
	return Slug{value: s}, nil
}

// NewAlias validates s against the stricter custom-alias policy (length
// 3..32, same charset) required of a user-supplied alias.
func NewAlias(s string) (Slug, error) {
	const op = "domain.NewAlias"
	if err := validateSlugChars(s, MinAliasLength, MaxAliasLength); err != nil {
		return Slug{}, errx.E(op, errx.Invalid, err)
	}
	return Slug{value: s}, nil
}

func validateSlugChars(s string, minLen, maxLen int) error {
	if len(s) < minLen || len(s) > maxLen {
		return &invalidSlugError{s}
	}
	for _, r := range s {
		if !isValidSlugRune(r) {
			return &invalidSlugError{s}
		}
	}
	return nil
}

func isValidSlugRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}

type invalidSlugError struct{ value string }

func (e *invalidSlugError) Error() string {
	return "invalid slug: " + e.value
}

// String returns the underlying slug text.
func (s Slug) String() string { return s.value }

// Equal reports byte-exact equality, matching the case-sensitive policy.
func (s Slug) Equal(other Slug) bool { return s.value == other.value }

// UserEmail is a validated local@domain address. Domain comparisons use
// the ASCII-lowercased domain part.
type UserEmail struct {
	value  string
	domain string
}

// NewUserEmail validates and constructs a UserEmail.
func NewUserEmail(s string) (UserEmail, error) {
	const op = "domain.NewUserEmail"
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return UserEmail{}, errx.E(op, errx.Invalid, &invalidEmailError{s})
	}
	domain := strings.ToLower(s[at+1:])
	return UserEmail{value: s, domain: domain}, nil
}

type invalidEmailError struct{ value string }

func (e *invalidEmailError) Error() string {
	return "invalid email: " + e.value
}

// String returns the email as supplied.
func (u UserEmail) String() string { return u.value }

// Domain returns the ASCII-lowercased domain part.
func (u UserEmail) Domain() string { return u.domain }
