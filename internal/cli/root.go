// Package cli implements the cryptoquotes command line.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// rootFlags holds the flags shared by every command. Persistent ones are read by
// subcommands too.
type rootFlags struct {
	configPath string
	debug      bool
	lenient    bool
	baseURL    string

	plain   bool
	jsonOut bool
}

// NewRootCmd creates the root command. Without a subcommand it shows the
// current top coins: interactively on a terminal, as text or JSON otherwise.
func NewRootCmd(ver string) *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:          "cryptoquotes",
		Short:        "Top cryptocurrencies by market cap",
		Long:         "cryptoquotes: the top ten coins by market cap, priced in USD, from CoinGecko",
		Version:      ver,
		Example:      rootCmdExample,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDisplay(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", os.Getenv("CONFIG_FILE"), "path to a JSON or YAML config file")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&flags.lenient, "lenient", false, "skip malformed records instead of rejecting the whole page")
	pf.StringVar(&flags.baseURL, "base-url", "", "CoinGecko API base URL (overrides config and env)")

	cmd.Flags().BoolVar(&flags.plain, "plain", false, "print plain text even on a terminal")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "print the quotes as a JSON array")
	cmd.MarkFlagsMutuallyExclusive("plain", "json")

	cmd.AddCommand(newServeCmd(&flags))
	return cmd
}

const rootCmdExample = `  # Browse the top ten coins interactively
  cryptoquotes

  # Print them once as text or JSON
  cryptoquotes --plain
  cryptoquotes --json

  # Keep going when individual records are malformed
  cryptoquotes --lenient --plain

  # Serve the latest quotes over HTTP
  cryptoquotes serve --addr :8080`
