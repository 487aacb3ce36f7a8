package epubfix

import "crypto/sha1"

// obfuscationPrefixLen is the number of leading bytes the IDPF font-mangling
// scheme transforms. The count and the SHA-1 key derivation below are
// mandated by the specification and must match bit-for-bit, otherwise
// conformant readers cannot load the fonts.
const obfuscationPrefixLen = 1040

// obfuscationKey derives the 20-byte XOR keystream from the package's
// unique identifier: SHA-1 over the UTF-8 bytes of the normalized value.
func obfuscationKey(identifier string) []byte {
	sum := sha1.Sum([]byte(normalizeIdentifier(identifier)))
	return sum[:]
}

// deobfuscatePrefix XORs the first min(1040, len(data)) bytes of data in
// place with the cycled keystream. The transform is its own inverse, so the
// same call both applies and removes the obfuscation.
func deobfuscatePrefix(data, key []byte) {
	n := min(obfuscationPrefixLen, len(data))
	for i := 0; i < n; i++ {
		data[i] ^= key[i%len(key)]
	}
}
