// Package envelope seals and opens credential vault payloads.
//
// A sealed payload is a single self-delimited text envelope of three
// hex-encoded segments joined by ":" — nonce, authentication tag, and
// ciphertext. Encryption is AES-256-GCM under a key derived from the local
// machine and user identity with argon2id.
//
// The derived key requires no separately managed secret: it protects the
// vault against casual inspection of the file, not against a determined
// attacker with local access to the same ambient identity values. Because
// the key is bound to the machine and user, moving the vault file to another
// host or account makes every envelope fail authentication.
package envelope
