package booking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// serialPrefix marks a ticket serial as ours on printed tickets and scans.
const serialPrefix = "TKT-"

// SerialAttempts bounds collision retries when inserting a ticket serial.
// Four random bytes give ~4 billion serials; a handful of retries is far more
// than the birthday bound ever needs at campus scale.
const SerialAttempts = 5

// NewSerial generates a ticket serial: the prefix plus eight uppercase hex
// characters from a cryptographically random source. Uniqueness is not
// guaranteed here; the store enforces it with a unique constraint and the
// caller retries on collision rather than hoping.
func NewSerial() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate ticket serial: %w", err)
	}
	return serialPrefix + strings.ToUpper(hex.EncodeToString(b[:])), nil
}
