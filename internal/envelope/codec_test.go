package envelope

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func newTestCodec(t *testing.T, identity string) *Codec {
	t.Helper()
	codec, err := NewCodec(deriveKey(identity))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec := newTestCodec(t, "host-a|alice")

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{name: "empty", plaintext: []byte{}},
		{name: "json object", plaintext: []byte(`{"github":{"access_token":"gho_abc"}}`)},
		{name: "binary", plaintext: []byte{0x00, 0xff, 0x13, 0x37, 0x00}},
		{name: "contains separator", plaintext: []byte("a:b:c:d")},
		{name: "large", plaintext: bytes.Repeat([]byte("credential "), 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := codec.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}

			opened, err := codec.Decrypt(sealed)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !bytes.Equal(opened, tt.plaintext) {
				t.Errorf("round trip mismatch: got %q, want %q", opened, tt.plaintext)
			}
		})
	}
}

func TestEncryptUsesFreshNonces(t *testing.T) {
	codec := newTestCodec(t, "host-a|alice")

	first, err := codec.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	second, err := codec.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if strings.Split(first, Separator)[0] == strings.Split(second, Separator)[0] {
		t.Error("two Encrypt calls produced the same nonce")
	}
}

func TestDecryptMalformedEnvelopes(t *testing.T) {
	codec := newTestCodec(t, "host-a|alice")

	sealed, err := codec.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	segments := strings.Split(sealed, Separator)

	tests := []struct {
		name     string
		envelope string
	}{
		{name: "empty string", envelope: ""},
		{name: "one segment", envelope: "deadbeef"},
		{name: "two segments", envelope: segments[0] + Separator + segments[1]},
		{name: "four segments", envelope: sealed + Separator + "00"},
		{name: "non-hex nonce", envelope: "zz" + Separator + segments[1] + Separator + segments[2]},
		{name: "non-hex tag", envelope: segments[0] + Separator + "not-hex!" + Separator + segments[2]},
		{name: "non-hex ciphertext", envelope: segments[0] + Separator + segments[1] + Separator + "xyz"},
		{name: "short nonce", envelope: "ab" + Separator + segments[1] + Separator + segments[2]},
		{name: "short tag", envelope: segments[0] + Separator + "abcd" + Separator + segments[2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decrypt(tt.envelope)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decrypt(%q) = %v, want ErrMalformed", tt.envelope, err)
			}
		})
	}
}

// TestDecryptTamperDetection flips every bit of the tag and ciphertext
// segments of a valid envelope and verifies each mutation fails closed.
func TestDecryptTamperDetection(t *testing.T) {
	codec := newTestCodec(t, "host-a|alice")

	plaintext := []byte(`{"p":"secret"}`)
	sealed, err := codec.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	segments := strings.Split(sealed, Separator)

	for _, seg := range []struct {
		name  string
		index int
	}{
		{name: "tag", index: 1},
		{name: "ciphertext", index: 2},
	} {
		t.Run(seg.name, func(t *testing.T) {
			raw, err := hex.DecodeString(segments[seg.index])
			if err != nil {
				t.Fatalf("decoding segment: %v", err)
			}

			for byteIdx := range raw {
				for bit := range 8 {
					mutated := bytes.Clone(raw)
					mutated[byteIdx] ^= 1 << bit

					tampered := make([]string, 3)
					copy(tampered, segments)
					tampered[seg.index] = hex.EncodeToString(mutated)

					opened, err := codec.Decrypt(strings.Join(tampered, Separator))
					if !errors.Is(err, ErrAuthentication) {
						t.Fatalf("bit %d of byte %d: Decrypt = (%q, %v), want ErrAuthentication", bit, byteIdx, opened, err)
					}
				}
			}
		})
	}
}

func TestDecryptWithDifferentKeyFails(t *testing.T) {
	alice := newTestCodec(t, "host-a|alice")
	bob := newTestCodec(t, "host-b|bob")

	sealed, err := alice.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := bob.Decrypt(sealed); !errors.Is(err, ErrAuthentication) {
		t.Errorf("Decrypt with different key = %v, want ErrAuthentication", err)
	}
}
