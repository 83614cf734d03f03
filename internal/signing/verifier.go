package signing

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Verifier checks record signatures against a public key.
type Verifier struct {
	pub *rsa.PublicKey
}

func NewVerifier(pub *rsa.PublicKey) (*Verifier, error) {
	if pub == nil || pub.N == nil {
		return nil, ErrInvalidKey
	}
	if pub.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("%w: %d bits", ErrWeakKey, pub.N.BitLen())
	}
	return &Verifier{pub: pub}, nil
}

// Verify reports whether signature is a valid signature of record.
//
// A bad signature is an ordinary outcome: malformed hex, wrong length and
// PSS mismatches all return false with a nil error. An error is returned only
// when record itself cannot be canonicalized (ErrSigning) or the crypto layer
// fails for a reason other than rsa.ErrVerification.
func (v *Verifier) Verify(record Record, signature string) (bool, error) {
	msg, err := Canonicalize(record)
	if err != nil {
		return false, err
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) == 0 {
		return false, nil
	}
	digest := sha256.Sum256(msg)
	err = rsa.VerifyPSS(v.pub, crypto.SHA256, digest[:], sig, pssOptions(v.pub))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, rsa.ErrVerification):
		return false, nil
	default:
		return false, fmt.Errorf("verify record signature: %w", err)
	}
}
