package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// DocumentNumber returns prefix-YYYYMMDD-NNN with a random three digit suffix,
// e.g. INV-20250115-482. It is not guaranteed unique.
func DocumentNumber(prefix string, t time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, t.Format("20060102"), n.Int64()+100), nil
}
