package auth

import (
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
)

func init() {
	jwtlib.RegisterSigningMethod(cardcrypto.AccessTokenAlgorithm, func() jwtlib.SigningMethod {
		return &signingMethod{alg: cardcrypto.AccessTokenAlgorithm}
	})
}

// signingMethod bridges an AccessTokenSigner into jwt-go. Keys are
// cardcrypto.PrivateKey for Sign and cardcrypto.PublicKey for Verify.
type signingMethod struct {
	alg    string
	signer cardcrypto.AccessTokenSigner
}

func newSigningMethod(signer cardcrypto.AccessTokenSigner) *signingMethod {
	return &signingMethod{alg: signer.Algorithm(), signer: signer}
}

func (m *signingMethod) Alg() string {
	return m.alg
}

func (m *signingMethod) Sign(signingString string, key any) ([]byte, error) {
	if m.signer == nil {
		return nil, fmt.Errorf("no signer registered for %s", m.alg)
	}
	privateKey, ok := key.(cardcrypto.PrivateKey)
	if !ok || privateKey == nil {
		return nil, fmt.Errorf("%w: %T", jwtlib.ErrInvalidKeyType, key)
	}
	return m.signer.GenerateTokenSignature([]byte(signingString), privateKey)
}

func (m *signingMethod) Verify(signingString string, sig []byte, key any) error {
	if m.signer == nil {
		return fmt.Errorf("no signer registered for %s", m.alg)
	}
	publicKey, ok := key.(cardcrypto.PublicKey)
	if !ok || publicKey == nil {
		return fmt.Errorf("%w: %T", jwtlib.ErrInvalidKeyType, key)
	}
	if !m.signer.VerifyTokenSignature([]byte(signingString), sig, publicKey) {
		return ErrInvalidSignature
	}
	return nil
}
