package keys

import (
	"crypto/sha256"
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"

	"xdao.co/claimledger/model"
)

const deriveDomain = "claimledger-keys-v1"

// AccountFromSeed returns the account id controlled by seed.
func AccountFromSeed(seed []byte) (model.AccountID, error) {
	var id model.AccountID
	if len(seed) != ed25519.SeedSize {
		return id, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	copy(id[:], pub)
	return id, nil
}

// DeriveRoleSeed deterministically derives a role-specific seed from a root seed.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(deriveDomain))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	return h.Sum(nil)[:ed25519.SeedSize], nil
}
