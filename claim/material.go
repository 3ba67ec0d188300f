package claim

import "encoding/hex"

// Sizes of the signature material.
const (
	PublicKeySize = 32
	SignatureSize = 64
)

var (
	fixedMessage   = []byte{1, 2, 3, 4, 5}
	fixedPublicKey = mustHex("403ed63d3a3d1eb032a759280e4a37a2b4ef916f3efb3714f493a8d4b6b88f7b")
	fixedSignature = mustHex("b095f8701a071ecbffe3943f13e688cd5d7200676543547803348d17fcc6d0a9" +
		"d186a4acd683783f695c4c2d9b32c4e397f14a4d83687316dc8529e304f9420d")
)

// Material is the input to one claim verification.
type Material struct {
	Message   []byte
	PublicKey []byte
	Signature []byte
}

// FixedMaterial returns a copy of the compiled-in message, key and signature.
func FixedMaterial() Material {
	return Material{
		Message:   append([]byte(nil), fixedMessage...),
		PublicKey: append([]byte(nil), fixedPublicKey...),
		Signature: append([]byte(nil), fixedSignature...),
	}
}

// Clone returns a deep copy of m.
func (m Material) Clone() Material {
	return Material{
		Message:   append([]byte(nil), m.Message...),
		PublicKey: append([]byte(nil), m.PublicKey...),
		Signature: append([]byte(nil), m.Signature...),
	}
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
