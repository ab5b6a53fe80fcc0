// ====================================
// File: cmd/swap/fee.go
// ====================================
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/raydium-swap/internal/dex/raydium"
)

func newFeeCmd(a *app) *cobra.Command {
	var (
		accounts    []string
		pool        string
		source      string
		destination string
		owner       string
	)

	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Estimate the priority fee a swap would pay",
		Long: `Estimates the compute-unit price from recent prioritization fees.
Accounts come from --account, or from the writable accounts of a swap over --pool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			writable, err := parseKeys(accounts, "account")
			if err != nil {
				return err
			}

			dex, err := a.newDEX()
			if err != nil {
				return err
			}

			if pool != "" {
				metadata, err := raydium.LoadPoolMetadata(pool)
				if err != nil {
					return err
				}
				ownerKey, err := a.ownerOrWallet(owner)
				if err != nil {
					return err
				}
				ix, err := dex.PrepareSwapInstruction(metadata, ownerKey, raydium.SwapRequest{
					SourceAccount:      source,
					DestinationAccount: destination,
					SwapBaseIn:         true,
				})
				if err != nil {
					return err
				}
				writable = append(writable, raydium.WritableAccounts(ix)...)
			}

			if len(writable) == 0 {
				return errors.New("nothing to estimate: pass --account or --pool")
			}

			fee := dex.Fees().EstimatePriorityFee(cmd.Context(), writable)
			fmt.Fprintf(a.out, "priority fee: %d micro-lamports per compute unit (%d accounts)\n", fee, len(writable))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&accounts, "account", nil, "writable account (repeatable)")
	cmd.Flags().StringVar(&pool, "pool", "", "path to pool metadata JSON")
	cmd.Flags().StringVar(&source, "source", "", "source token account (with --pool)")
	cmd.Flags().StringVar(&destination, "destination", "", "destination token account (with --pool)")
	cmd.Flags().StringVar(&owner, "owner", "", "wallet address (defaults to the configured signer)")
	cmd.MarkFlagsRequiredTogether("pool", "source", "destination")
	return cmd
}
