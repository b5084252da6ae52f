// Package signer adds signatures to Virgil Cards.
//
// Every card is signed by its own key ("self"), by the Cards service
// ("virgil") on publication, and optionally by any number of custom signers
// such as an application backend.
//
// # Signing a Card
//
//	s := signer.NewModelSigner(crypto)
//	err := s.Sign(signer.SignParams{
//	    Model:            model,
//	    SignerPrivateKey: keyPair.PrivateKey,
//	})
//
// # Custom Signers and Extra Fields
//
// A signature can cover extra data. The fields are serialized in insertion
// order and stored next to the signature:
//
//	err := s.Sign(signer.SignParams{
//	    Model:            model,
//	    SignerPrivateKey: appKey,
//	    Signer:           "my-backend",
//	    ExtraFields:      protocol.NewExtraFields("department", "finance"),
//	})
//
// The signed bytes are the content snapshot immediately followed by the
// extra fields snapshot (see SignedPayload).
//
// # Error Handling
//
// Common signing errors:
//
//   - ErrNilModel: model parameter is nil
//   - ErrNilPrivateKey: signer key is nil
//   - ErrDuplicateSigner: the signer id already signed this model
package signer
