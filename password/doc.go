// Package password provides argon2id password hashing with PHC-encoded
// output. Hashes are self-describing, so verification works against hashes
// produced under older parameter sets.
package password
