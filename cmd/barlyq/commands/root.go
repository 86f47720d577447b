package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/auth"
	"github.com/barlyqqyzmet/admin/internal/local"
	"github.com/barlyqqyzmet/admin/internal/logging"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	jsonOut    bool

	cfg *Config
	log *zap.Logger
}

func Root() *cobra.Command {
	return newRoot(&app{})
}

func newRoot(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "barlyq",
		Short: "barlyq: administration toolkit for the Barlyq platform",
		Long: `barlyq manages the Barlyq marketplace from the terminal or a browser.

It talks to the platform API with an administrator account, keeps the
session in a local SQLite store and refreshes it transparently.

Quick start:
  barlyq init                 Write the default config
  barlyq login                Sign in as an administrator
  barlyq users list           Browse users
  barlyq serve                Start the web dashboard`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.configPath == "" {
				a.configPath = ConfigPath()
			}
			cfg, err := LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := logging.New(cfg.LogLevel, a.verbose)
			if err != nil {
				return err
			}
			a.log = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.barlyq/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print raw JSON")

	root.AddCommand(
		versionCmd(a),
		initCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		usersCmd(a),
		listingsCmd(a),
		categoriesCmd(a),
		complaintsCmd(a),
		taxiCmd(a),
		courierCmd(a),
		cacheCmd(a),
		auditCmd(a),
		serveCmd(a),
	)
	return root
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "barlyq %s\napi    %s\n", Version, a.cfg.APIURL)
			return nil
		},
	}
}

func (a *app) openEngine() (*local.Engine, error) {
	opts := a.cfg.engineOptions()
	opts.Logger = a.log
	return local.Open(opts)
}

// cliSession is the engine plus the API client of the CLI session.
type cliSession struct {
	engine *local.Engine
	api    *client.Client
}

// actor names the signed-in admin for the audit log.
func (s *cliSession) actor(ctx context.Context) string {
	if c, err := s.engine.Claims(ctx, auth.CLISession); err == nil {
		return c.Subject()
	}
	return auth.CLISession
}

type sessionFunc func(cmd *cobra.Command, args []string, s *cliSession) error

// withSession opens the engine for one command run.
func (a *app) withSession(fn sessionFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := a.openEngine()
		if err != nil {
			return fmt.Errorf("open workspace: %w", err)
		}
		defer e.Close()

		err = fn(cmd, args, &cliSession{engine: e, api: e.Client(auth.CLISession)})
		if errors.Is(err, client.ErrSessionExpired) || errors.Is(err, auth.ErrNoToken) {
			return fmt.Errorf("%w (run: barlyq login)", err)
		}
		return err
	}
}
