// ====================================
// File: cmd/swap/encode.go
// ====================================
package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/raydium-swap/internal/dex/raydium"
)

func newEncodeCmd(a *app) *cobra.Command {
	flags := &swapFlags{}
	var owner string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the swap instruction without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, req, err := flags.request()
			if err != nil {
				return err
			}
			ownerKey, err := a.ownerOrWallet(owner)
			if err != nil {
				return err
			}
			dex, err := a.newDEX()
			if err != nil {
				return err
			}

			ix, err := dex.PrepareSwapInstruction(pool, ownerKey, req)
			if err != nil {
				return err
			}
			data, err := ix.Data()
			if err != nil {
				return err
			}
			decoded, err := raydium.DecodeSwapInstructionData(data)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "program: %s\n", ix.ProgramID())
			fmt.Fprintf(a.out, "data: %s\n", hex.EncodeToString(data))
			fmt.Fprintf(a.out, "discriminator: %d (base_in=%t)\n", decoded.Discriminator, decoded.SwapBaseIn())
			fmt.Fprintf(a.out, "amount: %d\n", decoded.AmountSpecified)
			fmt.Fprintln(a.out, "accounts:")
			for i, meta := range ix.Accounts() {
				fmt.Fprintf(a.out, "  %2d %s%s %s\n", i+1, flag(meta.IsWritable, "W"), flag(meta.IsSigner, "S"), meta.PublicKey)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&owner, "owner", "", "wallet address (defaults to the configured signer)")
	return cmd
}

func flag(set bool, mark string) string {
	if set {
		return mark
	}
	return "-"
}
