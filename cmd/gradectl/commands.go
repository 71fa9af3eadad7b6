package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/grade-ledger-api/internal/models"
	"github.com/noah-isme/grade-ledger-api/internal/repository"
	"github.com/noah-isme/grade-ledger-api/internal/service"
	"github.com/noah-isme/grade-ledger-api/pkg/config"
	"github.com/noah-isme/grade-ledger-api/pkg/database"
	"github.com/noah-isme/grade-ledger-api/pkg/validation"
)

// loadConfig is swapped in tests.
var loadConfig = config.Load

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gradectl",
		Short:         "Operator tooling for the grade ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newTokenCommand(), newVerifyJournalCommand())
	return root
}

func newTokenCommand() *cobra.Command {
	var (
		identity string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for an identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			auth := service.NewAuthService(validation.New(), zap.NewNop(), service.AuthConfig{
				Secret:     cfg.JWT.Secret,
				Issuer:     cfg.JWT.Issuer,
				Expiration: cfg.JWT.Expiration,
			})
			issued, err := auth.IssueToken(models.IssueTokenRequest{Identity: identity, TTL: ttl})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", issued.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "identity placed in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRATION)")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

func newVerifyJournalCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "verify-journal",
		Short: "Replay the journal and re-check every integrity token",
		Long: "Replays every journaled event into a fresh ledger state and recomputes " +
			"the integrity tokens of each grade record. Reads the Postgres journal " +
			"configured for the server, or a JSON export when --file is given.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			journal, closeFn, err := openJournal(ctx, file)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := service.VerifyJournal(ctx, journal)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if len(report.InvalidRecords) > 0 {
				return fmt.Errorf("%d grade records failed integrity checks", len(report.InvalidRecords))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON array of journal events, e.g. saved from GET /events")
	return cmd
}

func openJournal(ctx context.Context, file string) (service.Journal, func(), error) {
	if file != "" {
		journal, err := loadJournalFile(ctx, file)
		return journal, func() {}, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Ledger.JournalDriver != config.JournalDriverPostgres {
		return nil, nil, errors.New("the configured journal is in memory; pass --file with an exported journal")
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect journal database: %w", err)
	}
	return repository.NewEventRepository(db), func() { _ = db.Close() }, nil
}

// loadJournalFile accepts either a bare event array or a response envelope
// whose data field holds one.
func loadJournalFile(ctx context.Context, path string) (*repository.MemoryJournal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		var envelope struct {
			Data []models.Event `json:"data"`
		}
		if envErr := json.Unmarshal(raw, &envelope); envErr != nil {
			return nil, fmt.Errorf("decode journal file: %w", err)
		}
		events = envelope.Data
	}

	journal := repository.NewMemoryJournal()
	if err := journal.Append(ctx, events); err != nil {
		return nil, fmt.Errorf("load journal file: %w", err)
	}
	return journal, nil
}
