package internal

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	codeFloor = 100000
	codeSpan  = 900000
)

var codeSpanBig = big.NewInt(codeSpan)

// NewConfirmationCode returns a uniformly random code in [100000, 999999], so
// it always has exactly six digits.
func NewConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpanBig)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(codeFloor+n.Int64(), 10), nil
}
