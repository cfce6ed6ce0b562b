// Package cli wires the portal's commands: the HTTP server and the account
// tooling for the local auth backend.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/signin-portal/internal/pkg/config"
	"github.com/99minutos/signin-portal/pkg/logger"
)

// Execute creates and runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "signin",
		Short:        "Email/password sign-in portal",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newUsersCommand())
	return root
}

func initLogger(cfg *config.Config) zerolog.Logger {
	return logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
		Fields: map[string]string{"env": cfg.Env},
	})
}
