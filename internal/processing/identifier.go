package processing

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"time"
)

const (
	suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLength   = 6

	// largest multiple of len(suffixAlphabet) that fits in a byte
	rejectionBound = 252
)

// Fingerprint returns the lowercase hex MD5 digest of data.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// MintIdentifier builds PREFIX-YYYYMMDD-HHMMSS-XXXXXX from now (in UTC) and a
// random six character suffix drawn from crypto/rand.
func MintIdentifier(now time.Time, prefix string) (string, error) {
	return mint(now, prefix, rand.Reader)
}

func mint(now time.Time, prefix string, random io.Reader) (string, error) {
	suffix, err := randomSuffix(random)
	if err != nil {
		return "", err
	}
	now = now.UTC()
	return fmt.Sprintf("%s-%s-%s-%s", prefix, now.Format("20060102"), now.Format("150405"), suffix), nil
}

func randomSuffix(random io.Reader) (string, error) {
	out := make([]byte, 0, suffixLength)
	buf := make([]byte, suffixLength*2)
	for len(out) < suffixLength {
		if _, err := io.ReadFull(random, buf); err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		for _, b := range buf {
			if b >= rejectionBound {
				continue
			}
			out = append(out, suffixAlphabet[int(b)%len(suffixAlphabet)])
			if len(out) == suffixLength {
				break
			}
		}
	}
	return string(out), nil
}

var identifierPattern = regexp.MustCompile(`^([A-Z0-9]+)-(\d{8})-(\d{6})-([A-Z0-9]{6})$`)

// IsIdentifier reports whether s is a canonical identifier with the given
// prefix and a real calendar timestamp.
func IsIdentifier(s, prefix string) bool {
	m := identifierPattern.FindStringSubmatch(s)
	if m == nil || m[1] != prefix {
		return false
	}
	_, err := time.Parse("20060102150405", m[2]+m[3])
	return err == nil
}

// IDGenerator mints identifiers with an injectable clock and random source.
type IDGenerator struct {
	Prefix string
	Clock  func() time.Time
	Rand   io.Reader
}

func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{Prefix: prefix, Clock: time.Now, Rand: rand.Reader}
}

func (g *IDGenerator) Mint() (string, error) {
	clock := g.Clock
	if clock == nil {
		clock = time.Now
	}
	random := g.Rand
	if random == nil {
		random = rand.Reader
	}
	return mint(clock(), g.Prefix, random)
}
