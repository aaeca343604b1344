// Package password provides one-way credential hashing and verification.
package password

import "golang.org/x/crypto/bcrypt"

// bcrypt embeds a random per-call salt, so two hashes of the same
// password never compare equal as strings.
const cost = 12

// Hash generates a salted bcrypt hash of the given password.
func Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether candidate matches the stored hash. The comparison
// runs in constant time relative to the candidate. A mismatch is a normal
// outcome, not an error; callers decide user-facing messaging.
func Verify(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
