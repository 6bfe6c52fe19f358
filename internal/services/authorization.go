package services

import "crypto/subtle"

// AccessLevel orders the route key tiers.
type AccessLevel int

const (
	AccessLimited AccessLevel = iota
	AccessFull
	AccessSuperUser
)

func (l AccessLevel) String() string {
	switch l {
	case AccessSuperUser:
		return "superuser"
	case AccessFull:
		return "full"
	default:
		return "limited"
	}
}

// KeyAuthorizer checks route keys against the configured tiers. Each tier
// also grants every tier below it. Unset keys never match.
type KeyAuthorizer struct {
	limited   string
	full      string
	superUser string
}

func NewKeyAuthorizer(limited, full, superUser string) *KeyAuthorizer {
	return &KeyAuthorizer{limited: limited, full: full, superUser: superUser}
}

func keyMatches(configured, given string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(given)) == 1
}

func (a *KeyAuthorizer) HasSuperUserView(key string) bool {
	return keyMatches(a.superUser, key)
}

func (a *KeyAuthorizer) HasFullView(key string) bool {
	return a.HasSuperUserView(key) || keyMatches(a.full, key)
}

func (a *KeyAuthorizer) HasLimitedView(key string) bool {
	return a.HasFullView(key) || keyMatches(a.limited, key)
}

// Allows reports whether key grants at least level.
func (a *KeyAuthorizer) Allows(key string, level AccessLevel) bool {
	switch level {
	case AccessSuperUser:
		return a.HasSuperUserView(key)
	case AccessFull:
		return a.HasFullView(key)
	default:
		return a.HasLimitedView(key)
	}
}
