package common

import "golang.org/x/crypto/blake2b"

// Hasher digests serialized node bytes into a Pointer. The default is not
// collision-resistant against adversarial inputs; deployments that need one
// substitute a keyed MAC built with NewKeyedHasher (see store/filestore's
// WithHasher option).
type Hasher func(data []byte) Pointer

// Blake2b160 digests data to a 20-byte blake2b sum, matching the teacher's
// own hash width. It returns the raw sum; DefaultHasher hex-encodes it and
// adds the shard-directory separator.
func Blake2b160(data []byte) [20]byte {
	h, err := blake2b.New(20, nil)
	if err != nil {
		panic(err)
	}
	if _, err := h.Write(data); err != nil {
		panic(err)
	}
	var ret [20]byte
	copy(ret[:], h.Sum(nil))
	return ret
}

// DefaultHasher hashes node bytes with Blake2b160 and formats the result as
// a shard-prefixed Pointer.
func DefaultHasher(data []byte) Pointer {
	sum := Blake2b160(data)
	return NewPointer(hexEncode(sum[:]))
}

// NewKeyedHasher builds a Hasher that prepends key to the data before
// digesting, for deployments exposed to adversarial inputs where the
// unkeyed default would let an attacker engineer pointer collisions.
func NewKeyedHasher(key []byte) Hasher {
	keyCopy := append([]byte(nil), key...)
	return func(data []byte) Pointer {
		sum := Blake2b160(Concat(keyCopy, data))
		return NewPointer(hexEncode(sum[:]))
	}
}

const hexDigits = "0123456789abcdef"

func hexEncode(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}
