// Package keys manages the signing keys committers use to sign version
// records.
//
// The pure primitives (committer-key formatting, role-seed derivation,
// signing over canonical version bytes) are stable. The filesystem-backed
// KeyStore is a local-first convenience for the CLI and may change.
package keys
