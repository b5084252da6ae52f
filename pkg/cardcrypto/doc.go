// Package cardcrypto provides the cryptographic primitives used by Virgil Cards
// and access tokens.
//
// The Crypto interface is the only dependency the card and token protocols have
// on concrete cryptography. SageCrypto is the default implementation:
//
//	crypto := cardcrypto.NewSageCrypto()
//	keyPair, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	signature, err := crypto.GenerateSignature(data, keyPair.PrivateKey)
//	ok := crypto.VerifySignature(data, signature, keyPair.PublicKey)
//
// Public keys are exchanged as DER encoded PKIX structures and private keys as
// PKCS#8, so keys exported here can be read by any standard tooling.
//
// # Access Token Signing
//
// AccessTokenSigner binds JWT signing to a Crypto provider:
//
//	signer := cardcrypto.NewAccessTokenSigner(crypto)
//	signature, err := signer.GenerateTokenSignature(unsigned, apiKey)
package cardcrypto
