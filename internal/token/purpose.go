package token

// Purpose scopes a token to one flow. Every purpose signs with its own secret
// and is bound as the audience claim, so a token minted for one flow never
// verifies in another.
type Purpose int

const (
	Activation Purpose = iota + 1
	Access
	Refresh
	PasswordReset
)

var purposeNames = map[Purpose]string{
	Activation:    "activation",
	Access:        "access",
	Refresh:       "refresh",
	PasswordReset: "password_reset",
}

// Purposes lists every purpose a Codec must hold a secret for.
func Purposes() []Purpose {
	return []Purpose{Activation, Access, Refresh, PasswordReset}
}

func (p Purpose) String() string {
	if name, ok := purposeNames[p]; ok {
		return name
	}
	return "unknown"
}

func (p Purpose) Valid() bool {
	_, ok := purposeNames[p]
	return ok
}
