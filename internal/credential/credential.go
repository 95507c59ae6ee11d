package credential

import (
	"fmt"

	"github.com/Ranjel272/POSBF/internal/model"
)

// Kind is the credential scheme an account authenticates with.
type Kind string

const (
	KindPassword Kind = "password"
	KindPasscode Kind = "passcode"
)

// KindFor selects the scheme by role: cashiers use a numeric passcode,
// everybody else a password.
func KindFor(role model.Role) Kind {
	if role == model.RoleCashier {
		return KindPasscode
	}
	return KindPassword
}

// Credential is either Password(digest) or Passcode(digest). The zero value is
// not a valid credential.
type Credential struct {
	kind   Kind
	digest string
}

func Password(digest string) Credential { return Credential{kind: KindPassword, digest: digest} }
func Passcode(digest string) Credential { return Credential{kind: KindPasscode, digest: digest} }

// Of returns the credential stored for an account.
func Of(a *model.Account) Credential {
	return withDigest(KindFor(a.Role), a.CredentialHash)
}

func withDigest(kind Kind, digest string) Credential {
	if kind == KindPasscode {
		return Passcode(digest)
	}
	return Password(digest)
}

func (c Credential) Kind() Kind       { return c.kind }
func (c Credential) Digest() string   { return c.digest }
func (c Credential) IsZero() bool     { return c.kind == "" || c.digest == "" }
func (c Credential) String() string   { return fmt.Sprintf("%s(<redacted>)", c.kind) }
func (c Credential) GoString() string { return c.String() }

// Issue validates secret against the policy for kind and hashes it.
func Issue(h Hasher, p Policy, kind Kind, secret string) (Credential, error) {
	if err := p.Check(kind, secret); err != nil {
		return Credential{}, err
	}
	digest, err := h.Hash(secret)
	if err != nil {
		return Credential{}, err
	}
	return withDigest(kind, digest), nil
}

// Matches verifies secret against c using h.
func (c Credential) Matches(h Hasher, secret string) bool {
	if c.IsZero() {
		return false
	}
	return h.Verify(secret, c.digest)
}
