// ====================================
// File: cmd/swap/root.go
// ====================================
package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/raydium-swap/internal/blockchain/solbc"
	"github.com/rovshanmuradov/raydium-swap/internal/config"
	"github.com/rovshanmuradov/raydium-swap/internal/dex/raydium"
	"github.com/rovshanmuradov/raydium-swap/internal/logger"
	"github.com/rovshanmuradov/raydium-swap/internal/wallet"
)

var errNoSigner = errors.New("no signer configured: set private_key or keypair_path")

// app общее состояние команд, заполняется в PersistentPreRunE.
type app struct {
	cfgFile string
	envFile string
	debug   bool
	json    bool

	cfg     *config.Config
	logger  *zap.Logger
	cleanup func() error
	client  *solbc.Client
	out     io.Writer
}

// newRootCmd собирает дерево команд. Вызывающий обязан вызвать app.close после Execute.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "raydium-swap",
		Short:         "Raydium AMM v4 swap tool",
		Long:          `Builds, signs, submits and confirms a single Raydium AMM v4 swap transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (json or yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file, skipped if missing")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&a.json, "json-logs", false, "emit JSON logs")

	rootCmd.AddCommand(
		newSwapCmd(a),
		newBalanceCmd(a),
		newFeeCmd(a),
		newEncodeCmd(a),
	)
	return rootCmd, a
}

func (a *app) init(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()

	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	log, cleanup, err := logger.New(logger.Config{
		Debug:  cfg.DebugLogging || a.debug,
		JSON:   cfg.JSONLogging || a.json,
		File:   cfg.LogFile,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = log
	a.cleanup = cleanup

	a.client = solbc.NewClient(cfg.RPCURL, log, solbc.WithRateLimit(cfg.RPCRateLimit))
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.client != nil {
		errs = append(errs, a.client.Close())
		a.client = nil
	}
	if a.cleanup != nil {
		errs = append(errs, a.cleanup())
		a.cleanup = nil
	}
	return errors.Join(errs...)
}

// loadWallet загружает кошелёк из конфигурации. Ключ в ошибках не раскрывается.
func (a *app) loadWallet() (*wallet.Wallet, error) {
	switch {
	case a.cfg.PrivateKey != "":
		return wallet.NewWallet(a.cfg.PrivateKey)
	case a.cfg.KeypairPath != "":
		return wallet.LoadKeypairFile(a.cfg.KeypairPath)
	default:
		return nil, errNoSigner
	}
}

// signerFunc адаптирует loadWallet к raydium.SignerFunc.
func (a *app) signerFunc() raydium.SignerFunc {
	return func() (raydium.Signer, error) {
		w, err := a.loadWallet()
		if err != nil {
			return nil, err
		}
		return w, nil
	}
}

func (a *app) newDEX() (*raydium.DEX, error) {
	return raydium.NewDEX(a.client, a.signerFunc(), raydium.Options{
		ProgramID:      a.cfg.ProgramID,
		MinBuyAmount:   a.cfg.MinBuyAmount,
		ComputeUnits:   a.cfg.ComputeUnits,
		Commitment:     a.cfg.CommitmentType,
		ConfirmTimeout: a.cfg.ConfirmTimeout,
	}, a.logger)
}

// ownerOrWallet возвращает адрес из флага или адрес настроенного кошелька.
func (a *app) ownerOrWallet(owner string) (solana.PublicKey, error) {
	if owner != "" {
		key, err := solana.PublicKeyFromBase58(owner)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid owner %q: %w", owner, err)
		}
		return key, nil
	}
	w, err := a.loadWallet()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return w.PublicKey(), nil
}

func parseKeys(values []string, what string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(values))
	for _, v := range values {
		key, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", what, v, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
