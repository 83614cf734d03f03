package signing

import "errors"

var (
	// ErrSigning marks a record that cannot be canonicalized, so it can be
	// neither signed nor verified.
	ErrSigning = errors.New("record cannot be signed")

	// ErrWeakKey rejects RSA keys below MinKeyBits.
	ErrWeakKey = errors.New("rsa key too small")

	// ErrInvalidKey rejects PEM input that does not hold an RSA private key.
	ErrInvalidKey = errors.New("invalid rsa private key")
)
