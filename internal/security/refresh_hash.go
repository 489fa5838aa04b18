package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashRefreshToken digests a refresh token to the hex SHA-256 form stored in
// the sessions table. The raw token never touches the database.
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshTokenHashEqual reports whether the presented token hashes to the
// stored value. The comparison is constant time.
func RefreshTokenHashEqual(presented, storedHash string) bool {
	got := HashRefreshToken(presented)
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}
