package main

import (
	"errors"
	"flag"

	"xdao.co/claimledger/keys"
	"xdao.co/claimledger/model"
)

// callerFlags resolves the account a command acts as.
type callerFlags struct {
	caller     string
	seedHex    string
	signer     string
	signerRole string
	keyFile    string
	keyDir     string
}

func (c *callerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.caller, "caller", "", "Caller account id (64 hex chars)")
	fs.StringVar(&c.seedHex, "seed-hex", "", "Caller ed25519 seed (64 hex chars)")
	fs.StringVar(&c.signer, "signer", "", "Stored key name")
	fs.StringVar(&c.signerRole, "signer-role", "", "Stored role key (with --signer)")
	fs.StringVar(&c.keyFile, "key-file", "", "File holding a hex seed")
	c.registerKeyDir(fs)
}

func (c *callerFlags) registerKeyDir(fs *flag.FlagSet) {
	fs.StringVar(&c.keyDir, "key-dir", "", "Key store directory (default ~/.claimledger/keys)")
}

func (c *callerFlags) given() bool {
	return c.caller != "" || c.seedHex != "" || c.signer != "" || c.keyFile != ""
}

// seed loads the signing seed; a plain --caller has none.
func (c *callerFlags) seed() ([]byte, error) {
	ks, err := keys.Open(c.keyDir)
	if err != nil {
		return nil, err
	}
	return ks.LoadSeed(c.seedHex, c.signer, c.signerRole, c.keyFile)
}

func (c *callerFlags) account() (model.AccountID, error) {
	if c.caller != "" {
		if c.seedHex != "" || c.signer != "" || c.keyFile != "" {
			return model.AccountID{}, errors.New("--caller cannot be combined with a signing key")
		}
		return model.ParseAccountID(c.caller)
	}
	if !c.given() {
		return model.AccountID{}, errors.New("missing caller (--caller, --seed-hex, --signer or --key-file)")
	}
	seed, err := c.seed()
	if err != nil {
		return model.AccountID{}, err
	}
	return keys.AccountFromSeed(seed)
}

// clientFlags selects a client id either as hex or as literal text.
type clientFlags struct {
	hex  string
	text string
}

func (c *clientFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.hex, "client-id", "", "Client id as hex bytes")
	fs.StringVar(&c.text, "client", "", "Client id as literal text")
}

func (c *clientFlags) id() (model.ClientID, error) {
	switch {
	case c.hex != "" && c.text != "":
		return nil, errors.New("use either --client-id or --client")
	case c.hex != "":
		return model.ParseClientID(c.hex)
	case c.text != "":
		return model.ClientID(c.text), nil
	default:
		return nil, errors.New("missing --client-id or --client")
	}
}
