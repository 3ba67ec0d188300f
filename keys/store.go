package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudflare/circl/sign/ed25519"

	"xdao.co/claimledger/model"
)

// KeyStore keeps seeds under Directory:
//
//	<Directory>/<name>/root.key
//	<Directory>/<name>/roles/<role>.key
//
// Each file holds one hex-encoded seed.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Name  string
	Roles []string
}

func DefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".claimledger", "keys"), nil
}

// Open returns a KeyStore rooted at directory, or at DefaultDirectory if empty.
func Open(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) rolePath(name, role string) string {
	return filepath.Join(ks.Directory, name, "roles", role+".key")
}

func checkIdent(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", c, kind)
	}
	return nil
}

func CheckKeyName(name string) error { return checkIdent("key name", name) }

func CheckRole(role string) error { return checkIdent("role", role) }

// ParseSeedHex decodes a hex seed, with or without a 0x prefix.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimPrefix(strings.TrimSpace(seedHex), "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func writeSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func readSeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// InitRoot stores seed as name's root key and returns its account.
func (ks *KeyStore) InitRoot(name string, seed []byte, overwrite bool) (model.AccountID, string, error) {
	if err := CheckKeyName(name); err != nil {
		return model.AccountID{}, "", err
	}
	path := ks.rootPath(name)
	if err := writeSeed(path, seed, overwrite); err != nil {
		return model.AccountID{}, "", err
	}
	acct, err := AccountFromSeed(seed)
	return acct, path, err
}

// DeriveRole derives and stores a role seed from name's root key.
func (ks *KeyStore) DeriveRole(name, role string, overwrite bool) (model.AccountID, string, error) {
	if err := CheckKeyName(name); err != nil {
		return model.AccountID{}, "", err
	}
	root, err := readSeed(ks.rootPath(name))
	if err != nil {
		return model.AccountID{}, "", err
	}
	seed, err := DeriveRoleSeed(root, role)
	if err != nil {
		return model.AccountID{}, "", err
	}
	path := ks.rolePath(name, role)
	if err := writeSeed(path, seed, overwrite); err != nil {
		return model.AccountID{}, "", err
	}
	acct, err := AccountFromSeed(seed)
	return acct, path, err
}

// Seed loads name's root seed, or its role seed when role is non-empty.
func (ks *KeyStore) Seed(name, role string) ([]byte, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	if role == "" {
		return readSeed(ks.rootPath(name))
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}
	return readSeed(ks.rolePath(name, role))
}

// Account returns the account id of a stored key.
func (ks *KeyStore) Account(name, role string) (model.AccountID, error) {
	seed, err := ks.Seed(name, role)
	if err != nil {
		return model.AccountID{}, err
	}
	return AccountFromSeed(seed)
}

// LoadSeed resolves a seed from, in order: a hex literal, a key file, or a
// stored key name and role.
func (ks *KeyStore) LoadSeed(seedHex, name, role, keyFile string) ([]byte, error) {
	switch {
	case seedHex != "":
		return ParseSeedHex(seedHex)
	case keyFile != "":
		return readSeed(keyFile)
	case name != "":
		return ks.Seed(name, role)
	default:
		return nil, errors.New("no signer provided")
	}
}

// List returns stored key names and their roles, sorted.
func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var result []KeyEntry
	for _, name := range names {
		var roles []string
		roleEntries, err := os.ReadDir(filepath.Join(ks.Directory, name, "roles"))
		if err == nil {
			for _, e := range roleEntries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(e.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Name: name, Roles: roles})
	}
	return result, nil
}
