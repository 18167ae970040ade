package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// CalculateURLHash returns the hex MD5 of url, or "" for an empty url.
// It is stable across runs and used to name cache entries.
func CalculateURLHash(url string) string {
	if url == "" {
		return ""
	}
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// CalculateURLHashShort returns the first 8 characters of CalculateURLHash,
// for log fields.
func CalculateURLHashShort(url string) string {
	full := CalculateURLHash(url)
	if len(full) > 8 {
		return full[:8]
	}
	return full
}
