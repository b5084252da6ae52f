package main

import (
	"github.com/spf13/cobra"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Generate, publish and look up cards",
}

func init() {
	rootCmd.AddCommand(cardCmd)
}
