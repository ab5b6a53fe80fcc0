// ====================================
// File: cmd/swap/balance.go
// ====================================
package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func newBalanceCmd(a *app) *cobra.Command {
	var (
		owner    string
		accounts []string
		mints    []string
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show native and token balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenAccounts, err := parseKeys(accounts, "account")
			if err != nil {
				return err
			}
			mintKeys, err := parseKeys(mints, "mint")
			if err != nil {
				return err
			}

			ownerKey, err := a.ownerOrWallet(owner)
			if err != nil {
				return err
			}
			atas, err := a.associatedAccounts(owner, ownerKey, mintKeys)
			if err != nil {
				return err
			}
			tokenAccounts = append(tokenAccounts, atas...)

			dex, err := a.newDEX()
			if err != nil {
				return err
			}
			snapshot, err := dex.Balances().Snapshot(cmd.Context(), ownerKey, tokenAccounts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "owner: %s\n", snapshot.Owner)
			fmt.Fprintf(a.out, "SOL: %s (%d lamports)\n", snapshot.SOL(), snapshot.Lamports)
			for _, account := range tokenAccounts {
				balance, ok := snapshot.Tokens[account]
				if !ok {
					continue
				}
				fmt.Fprintf(a.out, "%s: %s (%d base units, decimals %d)\n",
					account, balance.UIAmount, balance.Amount, balance.Decimals)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "wallet address (defaults to the configured signer)")
	cmd.Flags().StringSliceVar(&accounts, "account", nil, "token account to query (repeatable)")
	cmd.Flags().StringSliceVar(&mints, "mint", nil, "mint whose associated token account to query (repeatable)")
	return cmd
}

// associatedAccounts выводит адреса ATA владельца для списка mint.
func (a *app) associatedAccounts(ownerFlag string, owner solana.PublicKey, mints []solana.PublicKey) ([]solana.PublicKey, error) {
	if len(mints) == 0 {
		return nil, nil
	}

	atas := make([]solana.PublicKey, 0, len(mints))
	if ownerFlag == "" {
		w, err := a.loadWallet()
		if err != nil {
			return nil, err
		}
		for _, mint := range mints {
			ata, err := w.GetATA(mint)
			if err != nil {
				return nil, err
			}
			atas = append(atas, ata)
		}
		return atas, nil
	}

	for _, mint := range mints {
		ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
		if err != nil {
			return nil, fmt.Errorf("failed to derive ATA for mint %s: %w", mint, err)
		}
		atas = append(atas, ata)
	}
	return atas, nil
}
