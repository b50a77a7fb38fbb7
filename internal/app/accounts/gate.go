package accounts

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultSignUpCode is the club's shared authorization code.
const DefaultSignUpCode = "WKC2006"

// GateCode checks the shared sign-up code. Only a bcrypt hash of the canonical form is kept
// in memory.
type GateCode struct {
	hash []byte
}

func canonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewGateCode(code string) (GateCode, error) {
	c := canonicalCode(code)
	if c == "" {
		return GateCode{}, errors.New("sign-up code must be non-empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c), bcrypt.DefaultCost)
	if err != nil {
		return GateCode{}, err
	}
	return GateCode{hash: hash}, nil
}

// Matches compares code ignoring surrounding whitespace and case.
func (g GateCode) Matches(code string) bool {
	if len(g.hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(canonicalCode(code))) == nil
}
