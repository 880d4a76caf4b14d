package cli

import (
	"encoding/json"
	"fmt"

	"gift-quiz-service/internal/codec"
	"github.com/spf13/cobra"
)

// NewDecodeCmd prints the configuration carried by a token or share link.
func NewDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token-or-url>",
		Short: "Decode a share link or data token into its quiz JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := codec.Decode(codec.TokenFromURL(args[0]))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("print quiz: %w", err)
			}
			return nil
		},
	}
}
