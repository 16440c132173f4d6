package token

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// Class distinguishes the two token kinds minted by the codec. A token of
// one class is never accepted where the other is expected.
type Class string

const (
	// ClassAccess is the short-lived credential authorizing API calls.
	ClassAccess Class = "access"

	// ClassRefresh is the long-lived credential used only to obtain new
	// access tokens.
	ClassRefresh Class = "refresh"
)

// Valid reports whether c is one of the known token classes.
func (c Class) Valid() bool {
	return c == ClassAccess || c == ClassRefresh
}

// Claims is the payload embedded in every signed token.
type Claims struct {
	gojwt.RegisteredClaims
	Class Class `json:"class"`
}
