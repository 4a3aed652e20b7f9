package crypto

import "testing"

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, 20)
	raw[19] = 0x42
	addr := MustNewAddress(FurPrefix, raw)

	decoded, err := DecodeAddress(addr.String())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.String() != addr.String() {
		t.Fatalf("round trip mismatch: %s != %s", decoded.String(), addr.String())
	}
}

func TestZeroAddress(t *testing.T) {
	if !ZeroAddress(Address{}) {
		t.Fatal("expected zero-value address to be zero")
	}
	raw := make([]byte, 20)
	raw[0] = 1
	if ZeroAddress(MustNewAddress(FurPrefix, raw)) {
		t.Fatal("expected non-zero address")
	}
}

func TestKeyToAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	if ZeroAddress(addr) {
		t.Fatal("expected derived address to be non-zero")
	}
}
