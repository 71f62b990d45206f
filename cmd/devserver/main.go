package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/dream1290/dbxui-sub000/devserver"
	fakeflightrepo "github.com/dream1290/dbxui-sub000/flights/repofake"
	"github.com/dream1290/dbxui-sub000/internal/config"
	orgrepofake "github.com/dream1290/dbxui-sub000/organizations/repofake"
	"github.com/dream1290/dbxui-sub000/token"
	"github.com/dream1290/dbxui-sub000/token/keys"
	"github.com/dream1290/dbxui-sub000/token/refresh"
	refreshrepofake "github.com/dream1290/dbxui-sub000/token/refresh/repofake"
	fakeuserrepo "github.com/dream1290/dbxui-sub000/users/repofake"
)

const (
	signingKeyID        = "devserver-1"
	denylistPrunePeriod = 5 * time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found")
	}
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	config.InitLogger(c.GetEnv(), c.GetDebug())
	displayAppname(c.GetAppName())

	handler, err := newServer(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handler.PruneDenylist(ctx, denylistPrunePeriod)

	server := &http.Server{Addr: listenAddr(c.GetPort()), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(server) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func newServer(c config.Config) (*devserver.Server, error) {
	keyPair, err := loadKeyPair(c.GetSigningKeyPEM())
	if err != nil {
		return nil, err
	}
	tokens := token.New(
		keys.NewKeyPairSigner(keyPair),
		keys.NewHMACSigner(c.GetTokenSecret()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetResetTokenExpiry()),
		token.WithIssuer(c.GetTokenIssuer()),
	)
	refreshTokens := refresh.NewManager(
		refreshrepofake.NewFakeRefreshTokenRepo(),
		c.GetRefreshTokenExpiry(),
		refresh.WithTokenLength(c.GetRefreshTokenLength()),
	)
	return devserver.New(c, devserver.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Organizations: orgrepofake.NewFakeOrganizationRepo(),
		Flights:       fakeflightrepo.NewFakeFlightRepo(),
	}, tokens, refreshTokens)
}

// loadKeyPair parses the configured signing key, or generates one that
// lasts until the process exits
func loadKeyPair(pem string) (*keys.KeyPair, error) {
	if pem != "" {
		return keys.LoadKeyPairFromPEM(signingKeyID, pem)
	}
	log.Warn().Msg("No signing key configured, generating an ephemeral ES256 key")
	return keys.GenerateECDSAKeyPair(signingKeyID)
}

func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
