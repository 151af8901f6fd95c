// Package password hashes and verifies user secrets.
//
// New hashes are Argon2id in PHC format:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// Verify also accepts bcrypt hashes ($2a$, $2b$, $2y$) so accounts imported from
// earlier deployments keep working; NeedsRehash reports them for upgrade.
//
// Hash strings are treated as untrusted input during Verify: argon2 parameters far
// above the configured cost are refused.
package password
