package auth

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Password length bounds apply to create, change and reset.
// bcrypt only accepts up to 72 bytes, so the maximum is counted in bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// Iteration count assumed for werkzeug pbkdf2 hashes that omit it.
const defaultPBKDF2Iterations = 260000

// HashPassword hashes with bcrypt, the only scheme new hashes are written in.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("inventrobil-no-such-user"), bcrypt.DefaultCost)
	return h
})

// CompareDummy does the work of a bcrypt check against a hash nobody owns, so a
// login for an unknown username takes as long as one with a wrong password.
func CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
}

// IsLegacyHash reports whether stored was written by the previous system
// and should be re-hashed after a successful login.
func IsLegacyHash(stored string) bool {
	return !isBcrypt(stored)
}

// CheckPasswordHash verifies password against stored. The scheme is detected from
// the hash itself: bcrypt, werkzeug pbkdf2/scrypt, or a bare 64-char sha256 hex digest.
func CheckPasswordHash(password, stored string) bool {
	switch {
	case isBcrypt(stored):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	case strings.HasPrefix(stored, "pbkdf2:"):
		return checkPBKDF2(password, stored)
	case strings.HasPrefix(stored, "scrypt:"):
		return checkScrypt(password, stored)
	case len(stored) == sha256.Size*2:
		sum := sha256.Sum256([]byte(password))
		return constantTimeHexEqual(hex.EncodeToString(sum[:]), stored)
	}
	return false
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// splitWerkzeug splits "method$salt$hexdigest".
func splitWerkzeug(stored string) (method, salt, digest string, ok bool) {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// pbkdf2:<hash>[:<iterations>]$salt$hex
func checkPBKDF2(password, stored string) bool {
	method, salt, digest, ok := splitWerkzeug(stored)
	if !ok {
		return false
	}
	args := strings.Split(strings.TrimPrefix(method, "pbkdf2:"), ":")
	if len(args) == 0 || len(args) > 2 {
		return false
	}
	newHash, size := hashByName(args[0])
	if newHash == nil {
		return false
	}
	iterations := defaultPBKDF2Iterations
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, size, newHash)
	return constantTimeHexEqual(hex.EncodeToString(key), digest)
}

// scrypt:<n>:<r>:<p>$salt$hex, 64-byte key
func checkScrypt(password, stored string) bool {
	method, salt, digest, ok := splitWerkzeug(stored)
	if !ok {
		return false
	}
	args := strings.Split(strings.TrimPrefix(method, "scrypt:"), ":")
	if len(args) != 3 {
		return false
	}
	params := make([]int, 3)
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n <= 0 {
			return false
		}
		params[i] = n
	}
	key, err := scrypt.Key([]byte(password), []byte(salt), params[0], params[1], params[2], 64)
	if err != nil {
		return false
	}
	return constantTimeHexEqual(hex.EncodeToString(key), digest)
}

func hashByName(name string) (func() hash.Hash, int) {
	switch name {
	case "sha256":
		return sha256.New, sha256.Size
	case "sha512":
		return sha512.New, sha512.Size
	case "sha1":
		return sha1.New, sha1.Size
	}
	return nil, 0
}

func constantTimeHexEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(strings.ToLower(b))) == 1
}
