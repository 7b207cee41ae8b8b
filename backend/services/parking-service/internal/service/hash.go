package service

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
)

// PaymentHash digests the session id and plate into a deterministic 32-char
// lowercase hex string. It is an idempotency/audit token, not a security
// primitive.
func PaymentHash(sessionID, licensePlate string) string {
	sum := md5.Sum([]byte(sessionID + licensePlate))
	return hex.EncodeToString(sum[:])
}

// TransactionValidationToken returns a random 128-bit identifier rendered as
// 32 hex characters without separators.
func TransactionValidationToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
