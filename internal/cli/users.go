package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
	"github.com/99minutos/signin-portal/internal/core/service"
	"github.com/99minutos/signin-portal/internal/core/validation"
	"github.com/99minutos/signin-portal/internal/infrastructure/db/mongo"
	"github.com/99minutos/signin-portal/internal/pkg/config"
)

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts of the local auth backend",
	}
	cmd.AddCommand(newUsersCreateCommand())
	cmd.AddCommand(newUsersImportCommand())
	return cmd
}

func newUsersCreateCommand() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAccounts(cmd.Context(), func(svc ports.AccountService, log zerolog.Logger) error {
				user, err := svc.Register(cmd.Context(), email, password, name)
				if err != nil {
					return err
				}
				log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("account created")
				fmt.Fprintln(cmd.OutOrStdout(), user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create accounts listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withAccounts(cmd.Context(), func(svc ports.AccountService, log zerolog.Logger) error {
				sum, err := importUsers(cmd.Context(), svc, f, log)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d, failed %d\n", sum.Created, sum.Skipped, sum.Failed)
				if sum.Failed > 0 {
					return fmt.Errorf("%d accounts failed to import", sum.Failed)
				}
				return nil
			})
		},
	}
}

// withAccounts connects to MongoDB and hands fn an AccountService.
func withAccounts(ctx context.Context, fn func(ports.AccountService, zerolog.Logger) error) error {
	cfg, err := loadUsersConfig(ctx, envconfig.OsLookuper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := initLogger(cfg)

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongo.Disconnect(ctx, client); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	repo := mongo.NewAccountRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return err
	}
	schema, err := validation.New()
	if err != nil {
		return err
	}
	return fn(service.NewAccountService(repo, schema), log)
}

// loadUsersConfig reads configuration from l with the auth backend pinned to
// local, so the Appwrite settings the server needs are not required here.
func loadUsersConfig(ctx context.Context, l envconfig.Lookuper) (*config.Config, error) {
	pinned := envconfig.MapLookuper(map[string]string{"AUTH_BACKEND": config.AuthBackendLocal})
	return config.LoadWith(ctx, envconfig.MultiLookuper(pinned, l))
}

// userFile is the import format:
//
//	users:
//	  - email: ada@example.com
//	    password: Analytical1
//	    name: Ada
type userFile struct {
	Users []userEntry `yaml:"users"`
}

type userEntry struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type importSummary struct {
	Created int
	Skipped int
	Failed  int
}

// importUsers registers every entry in r. Existing accounts are skipped; any
// other per-entry failure is logged and counted so one bad row does not stop
// the rest.
func importUsers(ctx context.Context, svc ports.AccountService, r io.Reader, log zerolog.Logger) (importSummary, error) {
	var file userFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return importSummary{}, fmt.Errorf("parse user file: %w", err)
	}

	var sum importSummary
	for i, u := range file.Users {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		_, err := svc.Register(ctx, u.Email, u.Password, u.Name)
		switch {
		case err == nil:
			sum.Created++
		case errors.Is(err, domain.ErrUserExists):
			sum.Skipped++
			log.Info().Str("email", u.Email).Msg("account exists, skipped")
		default:
			sum.Failed++
			log.Error().Err(err).Int("entry", i).Str("email", u.Email).Msg("account import failed")
		}
	}
	return sum, nil
}
