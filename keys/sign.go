package keys

import (
	"fmt"

	"github.com/cloudflare/circl/sign/ed25519"

	"xdao.co/claimledger/claim"
)

// SignClaim returns claim material for message signed by seed's key.
func SignClaim(seed, message []byte) (claim.Material, error) {
	if len(seed) != ed25519.SeedSize {
		return claim.Material{}, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return claim.Material{
		Message:   append([]byte(nil), message...),
		PublicKey: append([]byte(nil), pub...),
		Signature: ed25519.Sign(priv, message),
	}, nil
}
