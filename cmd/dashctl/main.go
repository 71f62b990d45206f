package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dream1290/dbxui-sub000/apiclient"
	"github.com/dream1290/dbxui-sub000/datacache"
	"github.com/dream1290/dbxui-sub000/internal/config"
	"github.com/dream1290/dbxui-sub000/session"
	"github.com/dream1290/dbxui-sub000/session/filestore"
	"github.com/dream1290/dbxui-sub000/session/memstore"
	"github.com/dream1290/dbxui-sub000/session/redisstore"
)

const sessionExpiredNotice = "Your session has expired. Please log in again with: dashctl login"

func main() {
	_ = godotenv.Load()
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// app is the state shared by every subcommand
type app struct {
	apiURL    string
	debug     bool
	storeKind string

	cfg    config.Config
	client *apiclient.Client
	cache  *datacache.Cache
	close  func() error
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "dashctl",
		Short:         "Command line client for the flight operations dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.close != nil {
				return a.close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Base URL of the dashboard API (default DASHBOARD_API_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Log failed responses and dump HTTP exchanges")
	rootCmd.PersistentFlags().StringVar(&a.storeKind, "store", "", "Session store: memory, file or redis (default DASHBOARD_SESSION_STORE)")

	rootCmd.AddCommand(a.newLoginCmd())
	rootCmd.AddCommand(a.newLogoutCmd())
	rootCmd.AddCommand(a.newRegisterCmd())
	rootCmd.AddCommand(a.newForgotPasswordCmd())
	rootCmd.AddCommand(a.newResetPasswordCmd())
	rootCmd.AddCommand(a.newWhoAmICmd())
	rootCmd.AddCommand(a.newFlightsCmd())
	rootCmd.AddCommand(a.newAnalyzeCmd())
	rootCmd.AddCommand(a.newStatusCmd())

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	a.cfg = cfg
	debug := a.debug || cfg.GetDebug()
	config.InitLogger(cfg.GetEnv(), debug)

	baseURL := a.apiURL
	if baseURL == "" {
		baseURL = cfg.GetAPIBaseURL()
	}
	kind := config.SessionStoreKind(a.storeKind)
	if kind == "" {
		kind = cfg.GetSessionStore()
	}

	ctx := cmd.Context()
	store, closeStore, err := openStore(ctx, kind, cfg)
	if err != nil {
		return err
	}

	client, err := apiclient.New(ctx, baseURL, store,
		apiclient.WithHTTPTimeout(cfg.GetHTTPTimeout()),
		apiclient.WithDebugLogging(debug),
	)
	if err != nil {
		_ = closeStore()
		return err
	}
	client.OnLogout(func() {
		fmt.Fprintln(cmd.ErrOrStderr(), sessionExpiredNotice)
	})

	a.client = client
	a.cache = datacache.New()
	detach := a.cache.Attach(client)
	a.close = func() error {
		detach()
		return closeStore()
	}
	return nil
}

func openStore(ctx context.Context, kind config.SessionStoreKind, cfg config.Config) (session.Store, func() error, error) {
	noop := func() error { return nil }
	switch kind {
	case config.SessionStoreMemory:
		return memstore.New(), noop, nil
	case config.SessionStoreRedis:
		rs, err := redisstore.Dial(ctx, cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB(), cfg.GetRedisPrefix())
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	case config.SessionStoreFile, "":
		fs, err := filestore.New(filepath.Join(cfg.GetDataFolder(), filestore.DefaultFileName))
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", kind)
}
