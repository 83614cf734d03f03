// Package signing canonicalizes scroll records and signs / verifies them with
// RSA-PSS (SHA-256, MGF1-SHA-256, maximum salt length).
//
// A Signer owns the private key for the lifetime of the process and hands out
// a Verifier bound to the matching public key. Both are immutable after
// construction and safe for concurrent use.
package signing
