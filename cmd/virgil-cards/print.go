package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
)

type signatureView struct {
	Signer      string            `json:"signer"`
	ExtraFields map[string]string `json:"extra_fields,omitempty"`
}

type cardView struct {
	ID             string          `json:"id"`
	Identity       string          `json:"identity"`
	Version        string          `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	PublicKey      string          `json:"public_key,omitempty"`
	PreviousCardID string          `json:"previous_card_id,omitempty"`
	IsOutdated     bool            `json:"is_outdated"`
	Signatures     []signatureView `json:"signatures"`
	PreviousCard   *cardView       `json:"previous_card,omitempty"`
}

func newCardView(card *protocol.Card) *cardView {
	if card == nil {
		return nil
	}

	view := &cardView{
		ID:             card.ID,
		Identity:       card.Identity,
		Version:        card.Version,
		CreatedAt:      card.CreatedAt.UTC(),
		PreviousCardID: card.PreviousCardID,
		IsOutdated:     card.IsOutdated,
		Signatures:     make([]signatureView, 0, len(card.Signatures)),
		PreviousCard:   newCardView(card.PreviousCard),
	}

	if exported, err := crypto.ExportPublicKey(card.PublicKey); err == nil {
		view.PublicKey = base64.StdEncoding.EncodeToString(exported)
	}

	for _, s := range card.Signatures {
		sv := signatureView{Signer: s.Signer}
		if s.ExtraFields.Len() > 0 {
			sv.ExtraFields = s.ExtraFields.Map()
		}
		view.Signatures = append(view.Signatures, sv)
	}

	return view
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to print output: %w", err)
	}
	return nil
}

// parseExtraFields reads repeated key=value flags, keeping their order
func parseExtraFields(pairs []string) (*protocol.ExtraFields, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	fields := protocol.NewExtraFields()
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid extra field %q, expected key=value", pair)
		}
		fields.Set(key, value)
	}
	return fields, nil
}
