// Package keys manages ed25519 seeds for ledger accounts and claim signers.
//
// An account id is the 32-byte ed25519 public key of its seed, the same way
// the hosting runtime derives accounts. Seeds live on the local filesystem as
// hex files; role seeds are derived deterministically from a root seed.
package keys
