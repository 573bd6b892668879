package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is a simple local-first key store for committer seeds.
//
// Features:
// - Supports Ed25519 keys only
// - Stores seeds on the local filesystem
// - Generates deterministic subkeys based on roles
//
// Layout: <dir>/<name>/root.key plus <dir>/<name>/roles/<role>.key.
type KeyStore struct {
	Directory string
}

// KeyEntry describes one stored committer identity and its derived roles.
type KeyEntry struct {
	Name  string
	Roles []string
}

// GetDefaultDirectory returns the default key store location.
func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".clehr", "keys"), nil
}

// CreateKeyStore opens a key store at directory, defaulting to the
// per-user location when directory is empty.
func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) roleKeyPath(name, role string) string {
	return filepath.Join(ks.Directory, name, "roles", role+".key")
}

// CheckKeyName validates a committer name for use as a directory name.
func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in name", char)
	}
	return nil
}

// CheckRole validates a role name for use as a file name.
func CheckRole(role string) error {
	if role == "" {
		return errors.New("role cannot be empty")
	}
	for _, char := range role {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in role", char)
	}
	return nil
}

// ParseSeedHex decodes a hex-encoded Ed25519 seed, tolerating an 0x
// prefix and surrounding whitespace.
func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeedToFile(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeedFromFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(strings.TrimSpace(string(data)))
}

// InitializeRootKey stores a root seed under name and returns the
// committer key it produces.
func (ks *KeyStore) InitializeRootKey(name string, seed []byte, overwrite bool) (committerKey string, filePath string, err error) {
	if err := CheckKeyName(name); err != nil {
		return "", "", err
	}
	filePath = ks.rootKeyPath(name)
	if err := ks.saveSeedToFile(filePath, seed, overwrite); err != nil {
		return "", "", err
	}
	return GenerateCommitterKeyFromSeed(seed), filePath, nil
}

// DeriveKeyFromRole derives and stores a role seed from an existing root
// key.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (committerKey string, filePath string, err error) {
	if err := CheckKeyName(from); err != nil {
		return "", "", err
	}
	if err := CheckRole(role); err != nil {
		return "", "", err
	}
	rootSeed, err := ks.loadSeedFromFile(ks.rootKeyPath(from))
	if err != nil {
		return "", "", err
	}
	roleSeed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return "", "", err
	}
	filePath = ks.roleKeyPath(from, role)
	if err := ks.saveSeedToFile(filePath, roleSeed, overwrite); err != nil {
		return "", "", err
	}
	return GenerateCommitterKeyFromSeed(roleSeed), filePath, nil
}

// ExportKey returns the committer key for a stored root or role seed.
func (ks *KeyStore) ExportKey(name string, role string) (string, error) {
	if err := CheckKeyName(name); err != nil {
		return "", err
	}
	var seed []byte
	var err error
	if role == "" {
		seed, err = ks.loadSeedFromFile(ks.rootKeyPath(name))
	} else {
		if err := CheckRole(role); err != nil {
			return "", err
		}
		seed, err = ks.loadSeedFromFile(ks.roleKeyPath(name, role))
	}
	if err != nil {
		return "", err
	}
	return GenerateCommitterKeyFromSeed(seed), nil
}

// LoadSeed resolves a signing seed from the first source provided: a
// literal hex seed, an explicit key file, or a stored name plus optional
// role.
func (ks *KeyStore) LoadSeed(seedHex, signerName, signerRole, keyFile string) ([]byte, error) {
	if seedHex != "" {
		return ParseSeedHex(seedHex)
	}
	if keyFile != "" {
		return ks.loadSeedFromFile(keyFile)
	}
	if signerName != "" {
		if err := CheckKeyName(signerName); err != nil {
			return nil, err
		}
		if signerRole == "" {
			return ks.loadSeedFromFile(ks.rootKeyPath(signerName))
		}
		if err := CheckRole(signerRole); err != nil {
			return nil, err
		}
		return ks.loadSeedFromFile(ks.roleKeyPath(signerName, signerRole))
	}
	return nil, errors.New("no signer provided")
}

// ListKeys enumerates stored committer identities and their roles.
func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
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
		rolesDir := filepath.Join(ks.Directory, name, "roles")
		roleEntries, rerr := os.ReadDir(rolesDir)
		var roles []string
		if rerr == nil {
			for _, roleEntry := range roleEntries {
				if roleEntry.IsDir() {
					continue
				}
				if strings.HasSuffix(roleEntry.Name(), ".key") {
					roles = append(roles, strings.TrimSuffix(roleEntry.Name(), ".key"))
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Name: name, Roles: roles})
	}
	return result, nil
}
