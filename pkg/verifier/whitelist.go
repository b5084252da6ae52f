package verifier

// VerifierCredentials names a signer and the key its signature must verify under
type VerifierCredentials struct {
	// Signer is the signer id as it appears in the card signatures
	Signer string

	// PublicKeyBase64 is the base64 encoded exported public key
	PublicKeyBase64 string
}

// Whitelist is a group of acceptable credentials. A card satisfies the group
// when at least one credential whose signer signed the card verifies.
type Whitelist []VerifierCredentials

// NewWhitelist creates a Whitelist from credentials
func NewWhitelist(credentials ...VerifierCredentials) Whitelist {
	return Whitelist(credentials)
}

