package main

import (
	"fmt"

	"github.com/spf13/cobra"

	virgilcards "github.com/sage-x-project/virgil-cards-go"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the library, card and API versions",
	Args:  cobra.NoArgs,
	RunE:  versionCmdRun,
}

type versionFlags struct {
	output string
}

var versionArgs versionFlags

func init() {
	versionCmd.Flags().StringVarP(&versionArgs.output, "output", "o", "",
		"The output format, empty for plain text or json.")
	rootCmd.AddCommand(versionCmd)
}

func versionCmdRun(cmd *cobra.Command, args []string) error {
	info := virgilcards.GetVersionInfo()

	switch versionArgs.output {
	case "json":
		return printJSON(rootCmd.OutOrStdout(), info)
	case "":
	default:
		return fmt.Errorf("invalid output format %q", versionArgs.output)
	}

	out := rootCmd.OutOrStdout()
	lines := [][2]string{
		{"version", info.Version},
		{"card", info.CardVersion},
		{"api", info.APIVersion},
		{"sage", info.SAGEVersion},
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(out, "%s: %s\n", line[0], line[1]); err != nil {
			return fmt.Errorf("failed to print version: %w", err)
		}
	}
	return nil
}
