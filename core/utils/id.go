package utils

import (
	"crypto/rand"
	"encoding/base64"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// GenerateRequestID returns an opaque id for provider-side create requests
// such as conference creation, which the provider de-duplicates on.
func GenerateRequestID() string {
	id, err := gonanoid.Generate(alphanumeric, 21)
	if err != nil {
		return GenerateRandomString(21)
	}
	return id
}

// GenerateRandomString generates a cryptographically secure random string
func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to nanoid if crypto/rand fails
		id, _ := gonanoid.Generate(alphanumeric, length)
		return id
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}
