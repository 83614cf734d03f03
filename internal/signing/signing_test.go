package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sharedOnce   sync.Once
	sharedSigner *Signer
	sharedErr    error
)

// testSigner shares one 2048-bit key across the package; generation dominates
// test time otherwise.
func testSigner(t *testing.T) *Signer {
	t.Helper()
	sharedOnce.Do(func() {
		sharedSigner, sharedErr = GenerateSigner(MinKeyBits)
	})
	require.NoError(t, sharedErr)
	return sharedSigner
}

func Test_SignVerify_RoundTrip(t *testing.T) {
	s := testSigner(t)
	records := []Record{
		{"scroll_id": "abc123", "funding_amount": 50000},
		{"app_concept": "FAA mesh", "scroll_compliance": true, "treaty_position": 248},
		{"timestamp": "2026-10-18T09:00:00Z", "note": nil},
		{},
	}
	for _, r := range records {
		sig, err := s.Sign(r)
		require.NoError(t, err)

		ok, err := s.Verifier().Verify(r, sig.String())
		require.NoError(t, err)
		assert.True(t, ok, "record %v", r)
	}
}

func Test_ConcreteScenario(t *testing.T) {
	s := testSigner(t)
	record := Record{"scroll_id": "abc123", "funding_amount": 50000}

	sig, err := s.Sign(record)
	require.NoError(t, err)

	ok, err := s.Verifier().Verify(record, string(sig))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verifier().Verify(Record{"scroll_id": "abc123", "funding_amount": 50001}, string(sig))
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Sign_IsProbabilistic(t *testing.T) {
	s := testSigner(t)
	record := Record{"scroll_id": "abc123"}

	a, err := s.Sign(record)
	require.NoError(t, err)
	b, err := s.Sign(record)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	for _, sig := range []Signature{a, b} {
		ok, err := s.Verifier().Verify(record, string(sig))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func Test_Verify_SingleByteMutation(t *testing.T) {
	s := testSigner(t)
	record := Record{"scroll_id": "abc123", "funding_amount": 50000}
	sig, err := s.Sign(record)
	require.NoError(t, err)

	raw, err := hex.DecodeString(string(sig))
	require.NoError(t, err)

	for _, i := range []int{0, 1, len(raw) / 2, len(raw) - 1} {
		mutated := append([]byte(nil), raw...)
		mutated[i] ^= 0x01
		ok, err := s.Verifier().Verify(record, hex.EncodeToString(mutated))
		require.NoError(t, err)
		assert.False(t, ok, "mutation at byte %d verified", i)
	}
}

func Test_Verify_MalformedSignatureIsFalse(t *testing.T) {
	s := testSigner(t)
	record := Record{"scroll_id": "abc123"}

	for _, sig := range []string{"", "zz", "abc", "00", "deadbeef"} {
		ok, err := s.Verifier().Verify(record, sig)
		require.NoError(t, err, "signature %q", sig)
		assert.False(t, ok, "signature %q", sig)
	}
}

func Test_Verify_IsDeterministic(t *testing.T) {
	s := testSigner(t)
	record := Record{"scroll_id": "abc123"}
	sig, err := s.Sign(record)
	require.NoError(t, err)

	for range 5 {
		ok, err := s.Verifier().Verify(record, string(sig))
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func Test_Verify_OtherKeyRejects(t *testing.T) {
	s := testSigner(t)
	other, err := GenerateSigner(MinKeyBits)
	require.NoError(t, err)

	record := Record{"scroll_id": "abc123"}
	sig, err := s.Sign(record)
	require.NoError(t, err)

	ok, err := other.Verifier().Verify(record, string(sig))
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Sign_RejectsNonPrimitive(t *testing.T) {
	s := testSigner(t)
	bad := []Record{
		{"nested": map[string]any{"a": 1}},
		{"list": []any{1, 2}},
		{"struct": struct{}{}},
	}
	for _, r := range bad {
		_, err := s.Sign(r)
		require.ErrorIs(t, err, ErrSigning)
	}
}

func Test_Verify_UnsignableRecordIsError(t *testing.T) {
	s := testSigner(t)
	_, err := s.Verifier().Verify(Record{"nested": []string{"x"}}, "00")
	require.ErrorIs(t, err, ErrSigning)
}

func Test_Verify_ReorderedKeysInteroperate(t *testing.T) {
	s := testSigner(t)

	var first, second Record
	require.NoError(t, json.Unmarshal([]byte(`{"b":2,"a":"x","c":true}`), &first))
	require.NoError(t, json.Unmarshal([]byte(`{"c":true,"a":"x","b":2}`), &second))

	sig, err := s.Sign(first)
	require.NoError(t, err)

	ok, err := s.Verifier().Verify(second, string(sig))
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_NewSigner_RejectsWeakKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	_, err = NewSigner(key)
	require.ErrorIs(t, err, ErrWeakKey)

	_, err = GenerateSigner(1024)
	require.ErrorIs(t, err, ErrWeakKey)
}

func Test_PublicKeyPEM(t *testing.T) {
	s := testSigner(t)
	data, err := s.PublicKeyPEM()
	require.NoError(t, err)

	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	assert.Equal(t, "PUBLIC KEY", block.Type)

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	require.NoError(t, err)
	rsaPub, ok := pub.(*rsa.PublicKey)
	require.True(t, ok)

	v, err := NewVerifier(rsaPub)
	require.NoError(t, err)
	record := Record{"scroll_id": "abc123"}
	sig, err := s.Sign(record)
	require.NoError(t, err)
	valid, err := v.Verify(record, string(sig))
	require.NoError(t, err)
	assert.True(t, valid)
}

func Test_LoadOrGenerate(t *testing.T) {
	t.Run("empty path generates", func(t *testing.T) {
		s, generated, err := LoadOrGenerate("", MinKeyBits)
		require.NoError(t, err)
		assert.True(t, generated)
		assert.Equal(t, MinKeyBits, s.KeyBits())
	})

	t.Run("pkcs8 file loads", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, MinKeyBits)
		require.NoError(t, err)
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "scroll.pem")
		require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

		s, generated, err := LoadOrGenerate(path, MinKeyBits)
		require.NoError(t, err)
		assert.False(t, generated)
		assert.Equal(t, MinKeyBits, s.KeyBits())
	})

	t.Run("pkcs1 parses", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, MinKeyBits)
		require.NoError(t, err)
		data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

		parsed, err := ParsePrivateKeyPEM(data)
		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

		_, _, err := LoadOrGenerate(path, MinKeyBits)
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadOrGenerate(filepath.Join(t.TempDir(), "absent.pem"), MinKeyBits)
		require.Error(t, err)
	})
}

func Test_ConcurrentSignVerify(t *testing.T) {
	s := testSigner(t)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := Record{"n": i}
			sig, err := s.Sign(r)
			if err != nil {
				errs <- err
				return
			}
			ok, err := s.Verifier().Verify(r, string(sig))
			if err != nil {
				errs <- err
				return
			}
			if !ok {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}
