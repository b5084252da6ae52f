package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cardSearchCmd = &cobra.Command{
	Use:   "search [identity]...",
	Short: "Search the current cards of one or more identities",
	Long: `The search command prints the newest card of each chain found for the
identities. Replaced cards are nested under previous_card.`,
	Example: `  virgil-cards card search alice bob`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    cardSearchCmdRun,
}

var cardSearchArgs cardLookupFlags

func init() {
	cardSearchCmd.Flags().StringVar(&cardSearchArgs.as, "as", defaultLookupIdentity,
		"The identity access tokens are issued for.")
	cardCmd.AddCommand(cardSearchCmd)
}

func cardSearchCmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	defer cancel()

	manager, err := newCardManager(cardSearchArgs.as)
	if err != nil {
		return fmt.Errorf("failed to create card manager: %w", err)
	}

	found, err := manager.SearchCards(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to search cards: %w", err)
	}

	views := make([]*cardView, 0, len(found))
	for _, card := range found {
		views = append(views, newCardView(card))
	}

	return printJSON(rootCmd.OutOrStdout(), views)
}
