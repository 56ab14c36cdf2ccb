package common

import (
	"math/rand"
	"time"
)

// GenerateReference returns a short uppercase alphanumeric reference used
// for human-facing correlation (withdrawal references, refund notes).
func GenerateReference() string {
	const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	result := make([]byte, 7)
	for i := range result {
		result[i] = characters[r.Intn(len(characters))]
	}
	return string(result)
}

// MaskTail replaces all but the last n characters of s with 'X'.
func MaskTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	masked := make([]byte, len(s))
	for i := range masked {
		if i < len(s)-n {
			masked[i] = 'X'
		} else {
			masked[i] = s[i]
		}
	}
	return string(masked)
}

// LastN returns the last n characters of s, or s itself when shorter.
func LastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
