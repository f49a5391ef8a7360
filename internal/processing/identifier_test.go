package processing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	a := Fingerprint(data)
	b := Fingerprint(append([]byte(nil), data...))
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	flipped := append([]byte(nil), data...)
	flipped[3] ^= 0x01
	assert.NotEqual(t, a, Fingerprint(flipped))
}

func TestFingerprintKnownValue(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Fingerprint(nil))
}

func TestMintIdentifierFormat(t *testing.T) {
	now := time.Date(2025, 3, 9, 23, 4, 5, 0, time.FixedZone("EST", -5*3600))

	id, err := MintIdentifier(now, "DFVD")
	require.NoError(t, err)

	// rendered in UTC, so the date rolls over
	assert.Regexp(t, `^DFVD-20250310-040405-[A-Z0-9]{6}$`, id)
	assert.True(t, IsIdentifier(id, "DFVD"))
	assert.False(t, IsIdentifier(id, "CASE"))
}

func TestMintIdentifierNoCollisionsWithinOneSecond(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		id, err := MintIdentifier(now, "DFVD")
		require.NoError(t, err)
		if _, dup := seen[id]; dup {
			t.Fatalf("collision after %d draws: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestRandomSuffixRejectsBiasedBytes(t *testing.T) {
	// 252..255 must be skipped; 0 maps to 'A' and 35 maps to '9'.
	src := bytes.NewReader([]byte{
		255, 254, 253, 252, 0, 35, 36, 71, 1, 2, 3, 4,
	})

	suffix, err := randomSuffix(src)
	require.NoError(t, err)
	assert.Equal(t, "A9A9BC", suffix)
}

func TestRandomSuffixPropagatesReadErrors(t *testing.T) {
	_, err := randomSuffix(bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)
}

func TestIDGeneratorUsesInjectedClock(t *testing.T) {
	gen := &IDGenerator{
		Prefix: "CASE",
		Clock:  func() time.Time { return time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC) },
		Rand:   bytes.NewReader(bytes.Repeat([]byte{25}, 12)),
	}

	id, err := gen.Mint()
	require.NoError(t, err)
	assert.Equal(t, "CASE-20241231-235959-ZZZZZZ", id)
}

func TestIsIdentifierRejectsImpossibleDates(t *testing.T) {
	assert.False(t, IsIdentifier("DFVD-20251399-000000-ABCDEF", "DFVD"))
	assert.False(t, IsIdentifier("DFVD-2025-0101-ABC", "DFVD"))
	assert.False(t, IsIdentifier("DFVD-20250101-000000-abcdef", "DFVD"))
}
