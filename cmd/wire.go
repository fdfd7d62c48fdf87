package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/ctix/internal/adapters/ethereum"
	"github.com/bnema/ctix/internal/adapters/metrics"
	"github.com/bnema/ctix/internal/adapters/render/tickets"
	tomlrepo "github.com/bnema/ctix/internal/adapters/repo/toml"
	chainstore "github.com/bnema/ctix/internal/adapters/secrets/chain"
	filestore "github.com/bnema/ctix/internal/adapters/secrets/file"
	passstore "github.com/bnema/ctix/internal/adapters/secrets/pass"
	"github.com/bnema/ctix/internal/adapters/wallet/bridge"
	"github.com/bnema/ctix/internal/adapters/wallet/keystore"
	"github.com/bnema/ctix/internal/application"
	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"github.com/bnema/ctix/internal/version"
	"github.com/spf13/viper"
)

const (
	keyRPCURL            = "rpc.url"
	keyKeystore          = "wallet.keystore"
	keyBridgeURL         = "wallet.bridge_url"
	keyPassphrase        = "wallet.passphrase"
	keyPassphraseFile    = "wallet.passphrase_file"
	keySecretsBackend    = "wallet.secrets_backend"
	keySecretsDir        = "wallet.secrets_dir"
	keyChainPollInterval = "wallet.chain_poll_interval"
	keyMetricsListen     = "metrics.listen"
	keyLogLevel          = "log.level"
	keyLogFormat         = "log.format"
	keyLogFile           = "log.file"
)

type app struct {
	cfg         *viper.Viper
	deployments *application.DeploymentService
	renderer    func(tickets.Page, tickets.RenderOptions) (string, error)
	passphrases ports.PassphraseStore
	metrics     *metrics.Metrics
	logger      *slog.Logger
	logCloser   io.Closer
	connect     func(ctx context.Context) (*connection, error)
}

// connection is what one command run needs to reach the wallet and chain.
type connection struct {
	wallet ports.WalletProvider
	binder ports.GatewayBinder
	close  func()
}

func wireApp() (*app, error) {
	cfg := viper.New()
	cfg.SetEnvPrefix("CTIX")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault(keyChainPollInterval, 5*time.Second)
	cfg.SetDefault(keyLogLevel, "warn")
	cfg.SetDefault(keyLogFormat, "text")
	cfg.SetDefault(keySecretsBackend, "auto")

	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire deployment repository: %w", err)
	}

	a := &app{
		cfg:      cfg,
		renderer: tickets.Render,
		metrics:  metrics.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	a.deployments = application.NewDeploymentService(repo, ports.SystemClock{}, fallbackDeployment())

	a.passphrases, err = newPassphraseStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire passphrase store: %w", err)
	}
	a.connect = a.dialChain

	return a, nil
}

// newPassphraseStore picks where keystore passphrases live: pass with a file
// fallback by default, or a single backend when configured.
func newPassphraseStore(cfg *viper.Viper) (ports.PassphraseStore, error) {
	dir := cfg.GetString(keySecretsDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".ctix", "secrets")
	}

	switch backend := cfg.GetString(keySecretsBackend); backend {
	case "auto", "":
		return chainstore.NewPassFirstWithFileFallback(dir)
	case "pass":
		return passstore.NewStore(), nil
	case "file":
		return filestore.NewStore(dir), nil
	default:
		return nil, fmt.Errorf("%w: unsupported secrets backend %q", domain.ErrInvalidInput, backend)
	}
}

// fallbackDeployment is the contract baked in at build time, used when the
// registry has nothing for the wallet's chain.
func fallbackDeployment() domain.Deployment {
	return domain.Deployment{
		Name:     "built-in",
		Contract: domain.Address(version.DefaultContractAddress),
	}
}

func (a *app) setupLogging(stderr io.Writer, quiet bool) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.GetString(keyLogLevel))); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	out := stderr
	if path := a.cfg.GetString(keyLogFile); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logCloser = file
		out = file
	} else if quiet {
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format := a.cfg.GetString(keyLogFormat); format {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text", "":
		handler = slog.NewTextHandler(out, opts)
	default:
		return fmt.Errorf("unsupported log format %q", format)
	}

	a.logger = slog.New(handler)
	return nil
}

func (a *app) closeLogging() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

// dialChain connects to the RPC endpoint and opens the configured wallet.
// A missing wallet is not an error here: the synchronizer reports it.
func (a *app) dialChain(ctx context.Context) (*connection, error) {
	rpcURL := a.cfg.GetString(keyRPCURL)
	if rpcURL == "" {
		deployment, err := a.deployments.Default(ctx)
		if err != nil && !errors.Is(err, domain.ErrDeploymentNotFound) {
			return nil, err
		}
		rpcURL = deployment.RPCURL
	}
	if rpcURL == "" {
		return nil, fmt.Errorf("%w: no rpc url configured; set rpc.url or add a deployment", domain.ErrInvalidInput)
	}

	client, err := ethereum.Dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	closers := []func(){client.Close}
	conn := &connection{
		binder: a.metrics.Binder(ethereum.NewBinder(client, a.deployments, a.logger)),
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}

	switch {
	case a.cfg.GetString(keyBridgeURL) != "":
		wallet, err := bridge.Dial(ctx, a.cfg.GetString(keyBridgeURL), a.logger)
		if err != nil {
			conn.close()
			return nil, err
		}
		closers = append(closers, func() { _ = wallet.Close() })
		conn.wallet = wallet

	case a.cfg.GetString(keyKeystore) != "":
		passphrase, err := a.passphrase()
		if err != nil {
			conn.close()
			return nil, err
		}
		conn.wallet = keystore.Open(a.cfg.GetString(keyKeystore), client, keystore.Options{
			Passphrase:   passphrase,
			Passphrases:  a.passphrases,
			PollInterval: a.cfg.GetDuration(keyChainPollInterval),
			Logger:       a.logger,
		})
	}

	if addr := a.cfg.GetString(keyMetricsListen); addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		closers = append(closers, cancel)
		go func() {
			if err := metrics.Serve(metricsCtx, addr, a.metrics, a.logger); err != nil {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	return conn, nil
}

func (a *app) passphrase() (string, error) {
	path := a.cfg.GetString(keyPassphraseFile)
	if path == "" {
		return a.cfg.GetString(keyPassphrase), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read passphrase file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
