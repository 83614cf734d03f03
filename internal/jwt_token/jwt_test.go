package jwttoken

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret-0123456789abcdef")

// fakeClock is advanced explicitly by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestIssuer(t *testing.T, opts ...Option) (*Issuer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	issuer, err := NewIssuer(testSecret, append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return issuer, clock
}

var licenseClaims = Claims{
	"scroll_id":          "scroll_faa_1760778000_ab12cd34",
	"claim_root_license": "claim_faa_1760778000_ef56ab78",
	"treaty_position":    int64(248),
	"funding_amount":     int64(50000),
	"scroll_bound":       true,
}

func Test_Issue_RoundTrip(t *testing.T) {
	issuer, clock := newTestIssuer(t)

	token, err := issuer.Issue(licenseClaims, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Len(t, strings.Split(token, "."), 3)

	got, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, licenseClaims, got.Claims)
	assert.Equal(t, DefaultIssuer, got.Issuer)
	assert.WithinDuration(t, clock.Now(), got.IssuedAt, 0)
	assert.WithinDuration(t, clock.Now().Add(time.Hour), got.ExpiresAt, 0)
}

func Test_Issue_RoundTrip_Int64Claims(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	// 2^53 + 1 is not representable as float64.
	claims := Claims{
		"ledger_sequence": int64(9007199254740993),
		"funding_ratio":   0.25,
		"positions":       []any{int64(1), int64(2)},
		"nested":          map[string]any{"count": int64(7)},
	}
	token, err := issuer.Issue(claims, time.Hour)
	require.NoError(t, err)

	got, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), got.Claims["ledger_sequence"])
	assert.Equal(t, 0.25, got.Claims["funding_ratio"])
	assert.Equal(t, []any{int64(1), int64(2)}, got.Claims["positions"])
	assert.Equal(t, map[string]any{"count": int64(7)}, got.Claims["nested"])
}

func Test_Issue_SubSecondClockDoesNotShortenTTL(t *testing.T) {
	issuer, clock := newTestIssuer(t)
	clock.Advance(900 * time.Millisecond)
	issuedAt := clock.Now()

	token, exp, err := issuer.IssueWithExpiry(licenseClaims, time.Hour)
	require.NoError(t, err)
	assert.False(t, exp.Before(issuedAt.Add(time.Hour)), "exp %s is before issue time + ttl", exp)

	got, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.WithinDuration(t, issuedAt.Truncate(time.Second), got.IssuedAt, 0)
	assert.WithinDuration(t, exp, got.ExpiresAt, 0)

	clock.Advance(time.Hour - 200*time.Millisecond)
	_, err = issuer.Validate(token)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func Test_Issue_DefaultTTL(t *testing.T) {
	issuer, clock := newTestIssuer(t)

	token, exp, err := issuer.IssueWithExpiry(Claims{"app_id": "app-1"}, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, clock.Now().Add(DefaultTTL), exp, 0)

	clock.Advance(DefaultTTL - time.Second)
	_, err = issuer.Validate(token)
	require.NoError(t, err)
}

func Test_Issue_CustomDefaultTTLAndIssuer(t *testing.T) {
	issuer, clock := newTestIssuer(t, WithDefaultTTL(10*time.Minute), WithIssuer("scrollvault.test"))
	assert.Equal(t, 10*time.Minute, issuer.TTL())

	token, exp, err := issuer.IssueWithExpiry(Claims{}, -1)
	require.NoError(t, err)
	assert.WithinDuration(t, clock.Now().Add(10*time.Minute), exp, 0)

	got, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "scrollvault.test", got.Issuer)
	assert.Empty(t, got.Claims)
}

func Test_Validate_Expired(t *testing.T) {
	issuer, clock := newTestIssuer(t)

	token, err := issuer.Issue(licenseClaims, time.Hour)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, ErrExpired)

	clock.Advance(24 * time.Hour)
	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, ErrExpired)
}

func Test_Validate_TamperedClaims(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	token, err := issuer.Issue(licenseClaims, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	mid := len(payload) / 2
	if payload[mid] == 'A' {
		payload[mid] = 'B'
	} else {
		payload[mid] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = issuer.Validate(tampered)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func Test_Validate_TamperedAndExpiredIsInvalidSignature(t *testing.T) {
	issuer, clock := newTestIssuer(t)

	token, err := issuer.Issue(licenseClaims, time.Minute)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	sig[0] ^= 0x01
	_, err = issuer.Validate(parts[0] + "." + parts[1] + "." + string(sig))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func Test_Validate_WrongSecret(t *testing.T) {
	issuer, clock := newTestIssuer(t)
	other, err := NewIssuer([]byte("another-secret-another-secret-0000"), WithClock(clock.Now))
	require.NoError(t, err)

	token, err := other.Issue(licenseClaims, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func Test_Validate_Garbage(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	for _, tok := range []string{"", "invalid-token-string", "a.b.c", "a.b"} {
		_, err := issuer.Validate(tok)
		require.ErrorIs(t, err, ErrInvalidSignature, "token %q", tok)
	}
}

func Test_Validate_RejectsOtherAlgorithms(t *testing.T) {
	issuer, clock := newTestIssuer(t)

	mc := jwt.MapClaims{
		"iss": DefaultIssuer,
		"iat": clock.Now().Unix(),
		"exp": clock.Now().Add(time.Hour).Unix(),
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, mc).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Validate(none)
	require.ErrorIs(t, err, ErrInvalidSignature)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, mc).SignedString(testSecret)
	require.NoError(t, err)
	_, err = issuer.Validate(hs512)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func Test_Validate_WrongIssuer(t *testing.T) {
	issuer, clock := newTestIssuer(t)
	foreign, err := NewIssuer(testSecret, WithClock(clock.Now), WithIssuer("someone.else"))
	require.NoError(t, err)

	token, err := foreign.Issue(licenseClaims, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func Test_Issue_RejectsReservedClaims(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	for _, name := range []string{"iss", "iat", "exp"} {
		_, err := issuer.Issue(Claims{name: "x"}, time.Hour)
		require.ErrorIs(t, err, ErrReservedClaim)
	}
}

func Test_NewIssuer_RejectsShortSecret(t *testing.T) {
	_, err := NewIssuer([]byte("faa_scroll_secret"))
	require.ErrorIs(t, err, ErrWeakSecret)
}

func Test_IssuerAdapter(t *testing.T) {
	issuer, clock := newTestIssuer(t)
	token, err := issuer.Issue(licenseClaims, time.Hour)
	require.NoError(t, err)

	claims, err := NewIssuerAdapter(issuer).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "scroll_faa_1760778000_ab12cd34", claims.ScrollID)
	assert.Equal(t, "claim_faa_1760778000_ef56ab78", claims.ClaimRoot)
	assert.Empty(t, claims.LicenseID)
	assert.WithinDuration(t, clock.Now().Add(time.Hour), claims.ExpiresAt, 0)

	_, err = NewIssuerAdapter(issuer).ValidateToken("nope")
	require.ErrorIs(t, err, ErrInvalidSignature)
}
