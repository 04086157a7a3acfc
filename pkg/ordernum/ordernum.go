package ordernum

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	prefix      = "ORD"
	suffixLen   = 5
	suffixChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generate returns a human-readable order number of the form
// ORD-<base36 unix timestamp>-<5 random chars>, uppercased. Uniqueness is
// probabilistic; the orders table enforces it with a unique constraint and
// callers retry on collision.
func Generate(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.Unix(), 36))
	return fmt.Sprintf("%s-%s-%s", prefix, ts, randomSuffix())
}

func randomSuffix() string {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand is assumed available; fall back to a time-derived
		// suffix rather than failing order creation.
		ns := time.Now().UnixNano()
		for i := range buf {
			buf[i] = suffixChars[int(ns>>uint(i*6))%len(suffixChars)]
		}
		return string(buf)
	}
	for i := range buf {
		buf[i] = suffixChars[int(buf[i])%len(suffixChars)]
	}
	return string(buf)
}
