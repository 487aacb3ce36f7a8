package epubfix

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestObfuscationKey(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantHex    string
	}{
		{
			name:       "non-UUID identifier with urn prefix and hyphens",
			identifier: "urn:uuid:ABCITY-1234",
			wantHex:    "8d942d551aaa072b4074a832f06ecdfdb91c2041",
		},
		{
			name:       "canonical UUID",
			identifier: "urn:uuid:550e8400-e29b-41d4-a716-446655440000",
			wantHex:    "c377074d6473f35a91001981355da793dc808ffd",
		},
		{
			name:       "UUID spelled uppercase derives the same key",
			identifier: "urn:uuid:550E8400-E29B-41D4-A716-446655440000",
			wantHex:    "c377074d6473f35a91001981355da793dc808ffd",
		},
		{
			name:       "ISBN identifier",
			identifier: "isbn:978-0-00-000000-2",
			wantHex:    "a2c297b11a6eebb5dd6b60b664a2ffd3bc7c36c5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := obfuscationKey(tt.identifier)
			if len(key) != 20 {
				t.Fatalf("obfuscationKey() length = %d, want 20", len(key))
			}
			if got := hex.EncodeToString(key); got != tt.wantHex {
				t.Errorf("obfuscationKey() = %s, want %s", got, tt.wantHex)
			}
		})
	}
}

func TestDeobfuscatePrefixIsInvolution(t *testing.T) {
	key := obfuscationKey("urn:uuid:550e8400-e29b-41d4-a716-446655440000")

	for _, n := range []int{0, 1, 19, 20, 1039, 1040, 1041, 4096} {
		original := fakeTTF(n)
		data := append([]byte(nil), original...)

		deobfuscatePrefix(data, key)
		if n > 0 && bytes.Equal(data, original) {
			t.Errorf("size %d: transform left data unchanged", n)
		}

		deobfuscatePrefix(data, key)
		if !bytes.Equal(data, original) {
			t.Errorf("size %d: applying the transform twice did not restore the original", n)
		}
	}
}

func TestDeobfuscatePrefixBoundary(t *testing.T) {
	key := obfuscationKey("urn:uuid:550e8400-e29b-41d4-a716-446655440000")
	original := fakeTTF(2048)
	data := append([]byte(nil), original...)

	deobfuscatePrefix(data, key)

	// Byte i of the prefix must be XORed with key[i%20].
	for i := 0; i < obfuscationPrefixLen; i++ {
		if data[i] != original[i]^key[i%len(key)] {
			t.Fatalf("byte %d: got %#x, want %#x", i, data[i], original[i]^key[i%len(key)])
		}
	}
	// Bytes beyond the 1040-byte prefix are untouched.
	if !bytes.Equal(data[obfuscationPrefixLen:], original[obfuscationPrefixLen:]) {
		t.Error("bytes beyond the obfuscation prefix were modified")
	}
}

func TestDeobfuscatePrefixShortFile(t *testing.T) {
	key := obfuscationKey("urn:uuid:550e8400-e29b-41d4-a716-446655440000")
	original := []byte{0xAA, 0xBB, 0xCC}
	data := append([]byte(nil), original...)

	deobfuscatePrefix(data, key)
	for i := range data {
		if data[i] != original[i]^key[i] {
			t.Errorf("byte %d: got %#x, want %#x", i, data[i], original[i]^key[i])
		}
	}
}
