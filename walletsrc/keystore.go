package walletsrc

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"

	wcrypto "nanoforge.dev/node/crypto"
)

// keystoreVersion mirrors the teacher's KeyStoreV1.Version convention
// ("RBKSv1") but names this format's own domain and contents: a
// wrapped wallet seed rather than a wrapped post-quantum secret key.
const keystoreVersion = "WKSv1"

// Keystore is the at-rest JSON encoding of one wallet's encrypted
// seed, grounded on the teacher's node/keymgr.go KeyStoreV1 shape
// (hex fields, an explicit wrap_alg tag so a future format change
// fails closed instead of silently misinterpreting old bytes) adapted
// from a wrapped post-quantum secret key to a wrapped 32-byte wallet
// seed, and from a caller-supplied raw KEK to an Argon2id-derived one
// since wallet keystores are unlocked by passphrase, not an operator-
// supplied hex key.
type Keystore struct {
	Version       string `json:"version"`
	WrapAlg       string `json:"wrap_alg"`
	SaltHex       string `json:"salt_hex"`
	ArgonTime     uint32 `json:"argon2_time"`
	ArgonMemoryKB uint32 `json:"argon2_memory_kb"`
	ArgonThreads  uint8  `json:"argon2_threads"`
	WrappedSeedHex string `json:"wrapped_seed_hex"`
}

const (
	defaultArgonTime     = 3
	defaultArgonMemoryKB = 64 * 1024
	defaultArgonThreads  = 4
)

func deriveKEK(passphrase string, salt []byte, time, memoryKB uint32, threads uint8) []byte {
	return argon2.IDKey([]byte(passphrase), salt, time, memoryKB, threads, 32)
}

// Seal wraps seed under a passphrase-derived KEK using the same
// AES-256 key-wrap routine the teacher uses for its own at-rest key
// material (crypto.AESKeyWrapRFC3394), with a freshly generated salt
// recorded alongside the wrapped bytes so Open can rederive the same
// KEK.
func Seal(passphrase string, seed [32]byte) (*Keystore, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("walletsrc: generate salt: %w", err)
	}
	kek := deriveKEK(passphrase, salt, defaultArgonTime, defaultArgonMemoryKB, defaultArgonThreads)
	wrapped, err := wcrypto.AESKeyWrapRFC3394(kek, seed[:])
	if err != nil {
		return nil, fmt.Errorf("walletsrc: wrap seed: %w", err)
	}
	return &Keystore{
		Version:        keystoreVersion,
		WrapAlg:        "AES-256-KW",
		SaltHex:        hex.EncodeToString(salt),
		ArgonTime:      defaultArgonTime,
		ArgonMemoryKB:  defaultArgonMemoryKB,
		ArgonThreads:   defaultArgonThreads,
		WrappedSeedHex: hex.EncodeToString(wrapped),
	}, nil
}

// Open unwraps a Keystore's seed given the passphrase that sealed it.
// A wrong passphrase fails the RFC 3394 integrity check inside
// AESKeyUnwrapRFC3394 rather than silently returning garbage.
func (ks *Keystore) Open(passphrase string) ([32]byte, error) {
	if ks.Version != keystoreVersion {
		return [32]byte{}, fmt.Errorf("walletsrc: unsupported keystore version %q", ks.Version)
	}
	if ks.WrapAlg != "AES-256-KW" {
		return [32]byte{}, fmt.Errorf("walletsrc: unsupported wrap_alg %q", ks.WrapAlg)
	}
	salt, err := hex.DecodeString(ks.SaltHex)
	if err != nil {
		return [32]byte{}, fmt.Errorf("walletsrc: salt_hex: %w", err)
	}
	wrapped, err := hex.DecodeString(ks.WrappedSeedHex)
	if err != nil {
		return [32]byte{}, fmt.Errorf("walletsrc: wrapped_seed_hex: %w", err)
	}
	kek := deriveKEK(passphrase, salt, ks.ArgonTime, ks.ArgonMemoryKB, ks.ArgonThreads)
	plain, err := wcrypto.AESKeyUnwrapRFC3394(kek, wrapped)
	if err != nil {
		return [32]byte{}, errors.New("walletsrc: wrong passphrase or corrupt keystore")
	}
	if len(plain) != 32 {
		return [32]byte{}, fmt.Errorf("walletsrc: unwrapped seed has wrong length %d", len(plain))
	}
	var seed [32]byte
	copy(seed[:], plain)
	return seed, nil
}

// SaveFile writes ks as indented JSON to path, matching the teacher's
// 0o600 keystore file permissions.
func (ks *Keystore) SaveFile(path string) error {
	b, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o600)
}

// LoadKeystoreFile reads and decodes a keystore JSON file.
func LoadKeystoreFile(path string) (*Keystore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ks Keystore
	if err := json.Unmarshal(raw, &ks); err != nil {
		return nil, err
	}
	return &ks, nil
}
