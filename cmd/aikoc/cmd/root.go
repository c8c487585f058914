package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is set by build flags; unset builds report "0.1.0-dev".
	Version = "0.1.0-dev"
)

var rootCmd = &cobra.Command{
	Use:   "aikoc",
	Short: "Aiko ahead-of-time compiler",
	Long: `aikoc compiles Aiko, a small statically-typed imperative language,
to a textual SSA-style intermediate representation.

aikoc never executes a program: lex, parse, and compile are pure
transformations that stop at emitting IR text for a separate back-end.`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("aikoc version %s\n", Version))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
