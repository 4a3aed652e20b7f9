package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix identifies the human-readable namespace an address belongs
// to. The stability pool and its collaborators all share a single address
// space; the prefix exists purely for bech32 readability.
type AddressPrefix string

// FurPrefix is the sole address namespace used by this protocol: deposits,
// front ends, the Trove Manager, and every ledger collaborator all share it.
const FurPrefix AddressPrefix = "fur"

// Address represents a 20-byte protocol participant address.
type Address struct {
	prefix AddressPrefix
	bytes  []byte
}

// NewAddress constructs an address from exactly 20 raw bytes.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("crypto: address must be 20 bytes long, got %d", len(b))
	}
	cloned := append([]byte(nil), b...)
	return Address{prefix: prefix, bytes: cloned}, nil
}

// MustNewAddress constructs an address and panics if the input is invalid.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

// ZeroAddress reports whether an address is the unset zero value.
func ZeroAddress(a Address) bool {
	if len(a.bytes) == 0 {
		return true
	}
	for _, b := range a.bytes {
		if b != 0 {
			return false
		}
	}
	return true
}

func (a Address) String() string {
	if len(a.bytes) == 0 {
		return ""
	}
	conv, err := bech32.ConvertBits(a.bytes, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a defensive copy of the address's raw bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes...)
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// Clone returns a deep copy of the address, keeping its prefix. An unset
// address clones to the zero Address, with no prefix.
func (a Address) Clone() Address {
	if len(a.bytes) == 0 {
		return Address{}
	}
	return MustNewAddress(a.prefix, a.bytes)
}

// DecodeAddress parses a bech32-encoded address string.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}

// --- Key management ---

// PrivateKey wraps an ECDSA key used to derive a protocol Address.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey wraps the public half of a PrivateKey.
type PublicKey struct {
	*ecdsa.PublicKey
}

// GeneratePrivateKey creates a new secp256k1 private key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the raw byte encoding of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

// PubKey derives the public key half of a private key.
func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the protocol address for a public key.
func (k *PublicKey) Address() Address {
	addrBytes := crypto.PubkeyToAddress(*k.PublicKey).Bytes()
	return MustNewAddress(FurPrefix, addrBytes)
}

// PrivateKeyFromBytes reconstructs a private key from its raw encoding.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
