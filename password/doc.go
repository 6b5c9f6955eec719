// Package password implements password hashing and verification with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Accounts migrated from the earlier service carry bcrypt hashes ($2a$, $2b$).
// Those verify normally and always report [Argon2.NeedsUpgrade] so the caller
// can re-hash on the next successful login.
//
// This package owns hashing and verification only. Callers supply plaintext
// and receive hashes; nothing is stored or logged here.
package password
