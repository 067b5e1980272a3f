package envelope

import (
	"os"
	"os/user"

	"golang.org/x/crypto/argon2"
)

// KeySize is the derived key length in bytes (AES-256).
const KeySize = 32

// keySalt is fixed and non-secret. The salt only domain-separates the
// derivation; the key's entropy comes from the machine/user identity.
var keySalt = []byte("credvault/vault-key/v1")

// argon2id cost parameters. Deliberately slow so brute-forcing the key from
// a stolen vault file is expensive.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

// Placeholders used when ambient identity values are unavailable. Derivation
// never fails; it only yields a lower-entropy key in that case.
const (
	fallbackHost = "unknown-host"
	fallbackUser = "unknown-user"
)

// DeriveKey produces the vault key from the local machine and user identity.
// The result is deterministic for a given machine/user, so repeated runs of
// the same process open the same vault without any stored secret.
func DeriveKey() []byte {
	return deriveKey(machineIdentity())
}

func deriveKey(identity string) []byte {
	return argon2.IDKey([]byte(identity), keySalt, argonTime, argonMemory, argonThreads, KeySize)
}

// machineIdentity builds the identity string from hostname and username,
// substituting fixed placeholders for values that cannot be determined.
func machineIdentity() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = fallbackHost
	}

	username := fallbackUser
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}

	return host + "|" + username
}
