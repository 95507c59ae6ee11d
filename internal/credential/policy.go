package credential

import (
	"fmt"
	"strings"
)

// maxSecretBytes is the bcrypt input limit.
const maxSecretBytes = 72

// PolicyError describes why a plaintext secret was rejected.
type PolicyError struct {
	Kind   Kind
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

// Policy bounds plaintext secrets before they are hashed. A blank secret is
// always rejected; stricter lengths and digits-only passcodes are opt-in.
type Policy struct {
	MinPasswordLength  int
	PasscodeMinLength  int
	PasscodeMaxLength  int
	PasscodeDigitsOnly bool
}

// DefaultPolicy accepts any non-blank secret bcrypt can hash.
func DefaultPolicy() Policy {
	return Policy{MinPasswordLength: 1, PasscodeMinLength: 1, PasscodeMaxLength: maxSecretBytes}
}

// Check validates secret for the given scheme.
func (p Policy) Check(kind Kind, secret string) error {
	switch kind {
	case KindPassword:
		if strings.TrimSpace(secret) == "" {
			return &PolicyError{Kind: kind, Reason: "Password is required"}
		}
		if len([]rune(secret)) < p.MinPasswordLength {
			return &PolicyError{Kind: kind, Reason: fmt.Sprintf("Password must be at least %d characters", p.MinPasswordLength)}
		}
		if len(secret) > maxSecretBytes {
			return &PolicyError{Kind: kind, Reason: fmt.Sprintf("Password must be at most %d bytes", maxSecretBytes)}
		}
	case KindPasscode:
		if strings.TrimSpace(secret) == "" {
			return &PolicyError{Kind: kind, Reason: "Passcode is required"}
		}
		if p.PasscodeDigitsOnly {
			for _, r := range secret {
				if r < '0' || r > '9' {
					return &PolicyError{Kind: kind, Reason: "Passcode must contain digits only"}
				}
			}
		}
		if n := len([]rune(secret)); n < p.PasscodeMinLength || n > p.PasscodeMaxLength {
			return &PolicyError{Kind: kind, Reason: fmt.Sprintf("Passcode must be %d to %d characters", p.PasscodeMinLength, p.PasscodeMaxLength)}
		}
		if len(secret) > maxSecretBytes {
			return &PolicyError{Kind: kind, Reason: fmt.Sprintf("Passcode must be at most %d bytes", maxSecretBytes)}
		}
	default:
		return &PolicyError{Kind: kind, Reason: "unknown credential kind"}
	}
	return nil
}
