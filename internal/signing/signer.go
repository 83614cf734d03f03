package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

// MinKeyBits is the smallest accepted RSA modulus.
const MinKeyBits = 2048

// Signature is the lowercase hex encoding of an RSA-PSS signature.
type Signature string

func (s Signature) String() string { return string(s) }

// Signer signs canonical records with the private key it owns.
type Signer struct {
	key      *rsa.PrivateKey
	verifier *Verifier
}

// NewSigner takes ownership of key.
func NewSigner(key *rsa.PrivateKey) (*Signer, error) {
	if key == nil {
		return nil, ErrInvalidKey
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if key.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("%w: %d bits", ErrWeakKey, key.N.BitLen())
	}
	key.Precompute()
	v, err := NewVerifier(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key, verifier: v}, nil
}

// GenerateSigner creates a fresh keypair of the given size.
func GenerateSigner(bits int) (*Signer, error) {
	if bits < MinKeyBits {
		return nil, fmt.Errorf("%w: %d bits", ErrWeakKey, bits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return NewSigner(key)
}

// Sign canonicalizes record and returns its hex signature. Unsignable input
// fails with ErrSigning before the private key is touched. PSS salts are
// random, so two signatures of the same record differ and both verify.
func (s *Signer) Sign(record Record) (Signature, error) {
	msg, err := Canonicalize(record)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPSS(rand.Reader, s.key, crypto.SHA256, digest[:], pssOptions(&s.key.PublicKey))
	if err != nil {
		return "", fmt.Errorf("sign record: %w", err)
	}
	return Signature(hex.EncodeToString(sig)), nil
}

// Verifier returns the verifier bound to this signer's public key.
func (s *Signer) Verifier() *Verifier {
	return s.verifier
}

// PublicKeyPEM returns the PKIX "PUBLIC KEY" PEM block for the signing key.
func (s *Signer) PublicKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// KeyBits reports the modulus size.
func (s *Signer) KeyBits() int {
	return s.key.N.BitLen()
}

// pssOptions pins the salt to the maximum length for the key, matching
// MGF1 over the same SHA-256 hash.
func pssOptions(pub *rsa.PublicKey) *rsa.PSSOptions {
	return &rsa.PSSOptions{
		SaltLength: maxSaltLength(pub),
		Hash:       crypto.SHA256,
	}
}

func maxSaltLength(pub *rsa.PublicKey) int {
	emLen := (pub.N.BitLen() - 1 + 7) / 8
	return emLen - crypto.SHA256.Size() - 2
}
