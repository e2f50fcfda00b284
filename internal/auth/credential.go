package auth

// CredentialKind tags how a stored credential is encoded.
type CredentialKind int

const (
	// CredentialPlaintext is a legacy credential stored as the secret itself.
	CredentialPlaintext CredentialKind = iota
	// CredentialHashed is a bcrypt modular-crypt digest.
	CredentialHashed
)

// String names the kind for logs.
func (k CredentialKind) String() string {
	if k == CredentialHashed {
		return "hashed"
	}
	return "plaintext"
}

// Credential is a stored password value tagged with its encoding.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// ParseCredential decides the variant from the stored string alone.
func ParseCredential(stored string) Credential {
	if isBcryptDigest(stored) {
		return Credential{Kind: CredentialHashed, Value: stored}
	}
	return Credential{Kind: CredentialPlaintext, Value: stored}
}

// HashedCredential wraps a digest produced by a PasswordHasher.
func HashedCredential(digest string) Credential {
	return Credential{Kind: CredentialHashed, Value: digest}
}

// IsHashed reports whether the credential is a digest.
func (c Credential) IsHashed() bool {
	return c.Kind == CredentialHashed
}

// String never exposes the value.
func (c Credential) String() string {
	return c.Kind.String() + "(redacted)"
}

// GoString keeps %#v from printing the value.
func (c Credential) GoString() string {
	return c.String()
}

const bcryptDigestLen = 60

// isBcryptDigest matches $2a$, $2b$ or $2y$ followed by a two digit cost,
// a dollar sign and 53 characters of the bcrypt base64 alphabet.
func isBcryptDigest(s string) bool {
	if len(s) != bcryptDigestLen {
		return false
	}
	if s[0] != '$' || s[1] != '2' || s[3] != '$' || s[6] != '$' {
		return false
	}
	switch s[2] {
	case 'a', 'b', 'y':
	default:
		return false
	}
	if !isDigit(s[4]) || !isDigit(s[5]) {
		return false
	}
	for i := 7; i < len(s); i++ {
		if !isBcryptAlphabet(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isBcryptAlphabet(b byte) bool {
	switch {
	case b == '.' || b == '/':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	default:
		return isDigit(b)
	}
}
