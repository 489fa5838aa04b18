package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
)

// pemFixture returns a P-256 key pair encoded as PKCS#8 / PKIX PEM.
func pemFixture(t *testing.T) (privPEM, pubPEM string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(key.Public())
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	privPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	pubPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privPEM, pubPEM
}

func TestParsePrivateKey_PKCS8(t *testing.T) {
	privPEM, _ := pemFixture(t)
	signer, err := ParsePrivateKey(privPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	if _, ok := signer.Public().(*ecdsa.PublicKey); !ok {
		t.Errorf("public key type = %T, want *ecdsa.PublicKey", signer.Public())
	}
}

func TestParsePublicKey_PKIX(t *testing.T) {
	_, pubPEM := pemFixture(t)
	pub, err := ParsePublicKey(pubPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if KeyAlg(pub) != "ES256" {
		t.Errorf("KeyAlg = %q, want ES256", KeyAlg(pub))
	}
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	if _, err := ParsePrivateKey(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty input: want ErrInvalidKey, got %v", err)
	}
	if _, err := ParsePrivateKey("-----BEGIN GARBAGE-----\nZm9v\n-----END GARBAGE-----"); err == nil {
		t.Error("garbage PEM type should fail")
	}
}

func TestReadKeyMaterial_Inline(t *testing.T) {
	_, pubPEM := pemFixture(t)
	b, err := readKeyMaterial(pubPEM)
	if err != nil {
		t.Fatalf("readKeyMaterial: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("readKeyMaterial returned empty bytes")
	}
}
