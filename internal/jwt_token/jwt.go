package jwttoken

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultIssuer is stamped into the iss claim of every license token.
	DefaultIssuer = "faa.zone.scroll.backend"

	// DefaultTTL applies when Issue is called with a non-positive ttl.
	DefaultTTL = 24 * time.Hour

	// MinSecretBytes is the shortest HMAC secret NewIssuer accepts.
	MinSecretBytes = 32
)

var (
	ErrExpired          = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrReservedClaim    = errors.New("claim name is reserved")
	ErrWeakSecret       = errors.New("token secret too short")
)

// reservedClaims are set by the issuer and never taken from callers.
var reservedClaims = []string{"iss", "iat", "exp"}

// Claims are the caller-supplied fields bound into a token.
type Claims map[string]any

// ValidatedToken is what Validate returns for a good token. Claims holds
// exactly the caller fields passed to Issue; numbers come back as float64.
type ValidatedToken struct {
	Claims    Claims
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer mints and validates HS256 license tokens:
// base64url(header).base64url(claims).base64url(HMAC-SHA256).
type Issuer struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	now        func() time.Time
}

type Option func(*Issuer)

func WithIssuer(iss string) Option {
	return func(i *Issuer) {
		if iss != "" {
			i.issuer = iss
		}
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.defaultTTL = ttl
		}
	}
}

// WithClock replaces time.Now for issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

func NewIssuer(secret []byte, opts ...Option) (*Issuer, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrWeakSecret, len(secret), MinSecretBytes)
	}
	i := &Issuer{
		secret:     append([]byte(nil), secret...),
		issuer:     DefaultIssuer,
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i, nil
}

// Issue signs claims plus iss, iat and exp. iat is truncated to the second and
// exp is now + ttl rounded up, so a token never expires before ttl has passed.
func (i *Issuer) Issue(claims Claims, ttl time.Duration) (string, error) {
	token, _, err := i.IssueWithExpiry(claims, ttl)
	return token, err
}

// IssueWithExpiry is Issue that also reports the expiry it stamped.
func (i *Issuer) IssueWithExpiry(claims Claims, ttl time.Duration) (string, time.Time, error) {
	for _, name := range reservedClaims {
		if _, ok := claims[name]; ok {
			return "", time.Time{}, fmt.Errorf("%w: %q", ErrReservedClaim, name)
		}
	}
	if ttl <= 0 {
		ttl = i.defaultTTL
	}

	now := i.now().UTC()
	iat := now.Truncate(time.Second)
	exp := ceilSecond(now.Add(ttl))

	mc := make(jwt.MapClaims, len(claims)+len(reservedClaims))
	maps.Copy(mc, claims)
	mc["iss"] = i.issuer
	mc["iat"] = jwt.NewNumericDate(iat)
	mc["exp"] = jwt.NewNumericDate(exp)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign license token: %w", err)
	}
	return signed, exp, nil
}

// Validate checks the HMAC tag (constant time), then the expiry. A token whose
// tag does not match, or that cannot be parsed, fails with
// ErrInvalidSignature; a correctly signed token at or past exp fails with
// ErrExpired.
func (i *Issuer) Validate(tokenString string) (*ValidatedToken, error) {
	parsed, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
		jwt.WithJSONNumber(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSignature
	}

	out := &ValidatedToken{Claims: make(Claims, len(mc))}
	out.Issuer, _ = mc.GetIssuer()
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time.UTC()
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}
	for k, v := range mc {
		out.Claims[k] = fromJSONNumbers(v)
	}
	for _, name := range reservedClaims {
		delete(out.Claims, name)
	}
	return out, nil
}

// ceilSecond rounds t up to the next whole second. exp is a NumericDate in
// whole seconds and must never land before the requested ttl.
func ceilSecond(t time.Time) time.Time {
	if down := t.Truncate(time.Second); !down.Equal(t) {
		return down.Add(time.Second)
	}
	return t
}

// fromJSONNumbers turns json.Number into int64 when the text is an integer and
// float64 otherwise, descending into objects and arrays.
func fromJSONNumbers(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case map[string]any:
		for k, e := range n {
			n[k] = fromJSONNumbers(e)
		}
		return n
	case []any:
		for i, e := range n {
			n[i] = fromJSONNumbers(e)
		}
		return n
	default:
		return v
	}
}

// TTL reports the ttl used when Issue gets a non-positive one.
func (i *Issuer) TTL() time.Duration {
	return i.defaultTTL
}
