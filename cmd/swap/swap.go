// ====================================
// File: cmd/swap/swap.go
// ====================================
package main

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/raydium-swap/internal/dex/raydium"
)

type swapFlags struct {
	pool        string
	source      string
	destination string
	amount      string
	baseOut     bool
}

func (f *swapFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pool, "pool", "", "path to pool metadata JSON")
	cmd.Flags().StringVar(&f.source, "source", "", "source token account")
	cmd.Flags().StringVar(&f.destination, "destination", "", "destination token account")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount in base units (input amount, or output amount with --base-out)")
	cmd.Flags().BoolVar(&f.baseOut, "base-out", false, "treat --amount as the exact output amount")
	for _, name := range []string{"pool", "source", "destination", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

// request загружает пул и собирает SwapRequest из флагов.
func (f *swapFlags) request() (*raydium.PoolMetadata, raydium.SwapRequest, error) {
	pool, err := raydium.LoadPoolMetadata(f.pool)
	if err != nil {
		return nil, raydium.SwapRequest{}, err
	}
	amount, err := raydium.ParseAmount(f.amount)
	if err != nil {
		return nil, raydium.SwapRequest{}, err
	}
	return pool, raydium.SwapRequest{
		SourceAccount:      f.source,
		DestinationAccount: f.destination,
		AmountSpecified:    amount,
		SwapBaseIn:         !f.baseOut,
	}, nil
}

func newSwapCmd(a *app) *cobra.Command {
	flags := &swapFlags{}

	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Execute a swap and wait for confirmation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireBuyAmount(); err != nil {
				return err
			}
			pool, req, err := flags.request()
			if err != nil {
				return err
			}

			dex, err := a.newDEX()
			if err != nil {
				return err
			}

			sig, err := dex.Swap(cmd.Context(), pool, req)
			if err != nil {
				printSwapFailure(a, sig, err)
				return err
			}

			fmt.Fprintln(a.out, sig.String())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// printSwapFailure выводит подпись неподтвержденной транзакции и логи симуляции.
func printSwapFailure(a *app, sig solana.Signature, err error) {
	if !sig.IsZero() {
		fmt.Fprintf(a.out, "submitted but not confirmed: %s\n", sig)
	}

	var subErr *raydium.SubmissionError
	if errors.As(err, &subErr) && len(subErr.Logs) > 0 {
		fmt.Fprintln(a.out, "simulation logs:")
		for _, line := range subErr.Logs {
			fmt.Fprintf(a.out, "  %s\n", line)
		}
	}

	var fundsErr *raydium.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		fmt.Fprintf(a.out, "wallet needs at least %d lamports, has %d\n", fundsErr.Required, fundsErr.Current)
	}
}
