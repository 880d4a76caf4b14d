package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gift-quiz-service/internal/codec"
	"gift-quiz-service/internal/config"
	"gift-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewShareCmd prints the share link for a configuration file.
func NewShareCmd(configPath *string) *cobra.Command {
	var (
		file      string
		baseURL   string
		tokenOnly bool
	)
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Print the share link for a quiz configuration (JSON file, - for stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readQuizFile(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if tokenOnly {
				token, err := codec.Encode(cfg)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			}
			if baseURL == "" {
				baseURL = publicURLFromConfig(*configPath)
			}
			link, err := codec.ShareURL(baseURL, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "quiz configuration JSON")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "page the link points to (default server.publicUrl)")
	cmd.Flags().BoolVar(&tokenOnly, "token", false, "print only the data token")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readQuizFile(stdin io.Reader, path string) (domain.QuizConfig, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.QuizConfig{}, fmt.Errorf("read quiz %s: %w", path, err)
	}
	var cfg domain.QuizConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse quiz %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func publicURLFromConfig(path string) string {
	cfg, err := config.Load(path)
	if err != nil || cfg.Server.PublicURL == "" {
		return defaultPublicURL
	}
	return cfg.Server.PublicURL
}
