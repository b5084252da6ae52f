package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cardGetCmd = &cobra.Command{
	Use:     "get [card-id]",
	Short:   "Fetch and verify a card by id",
	Example: `  virgil-cards card get 2d3a...e1 --as=alice`,
	Args:    cobra.ExactArgs(1),
	RunE:    cardGetCmdRun,
}

type cardLookupFlags struct {
	as string
}

var cardGetArgs cardLookupFlags

func init() {
	cardGetCmd.Flags().StringVar(&cardGetArgs.as, "as", defaultLookupIdentity,
		"The identity access tokens are issued for.")
	cardCmd.AddCommand(cardGetCmd)
}

// defaultLookupIdentity is the token identity of read-only commands
const defaultLookupIdentity = "virgil-cards-cli"

func cardGetCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	manager, err := newCardManager(cardGetArgs.as)
	if err != nil {
		return fmt.Errorf("failed to create card manager: %w", err)
	}

	card, err := manager.GetCard(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get card: %w", err)
	}

	return printJSON(rootCmd.OutOrStdout(), newCardView(card))
}
