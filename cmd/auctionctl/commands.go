package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jensholdgaard/auction-house/internal/auction"
)

const commandTimeout = 30 * time.Second

// withEnv opens the store for the duration of fn.
func withEnv(cmd *cobra.Command, configPath string, fn func(ctx context.Context, e *env) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	e, err := openEnv(ctx, configPath)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e)
}

func newShopsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "shops",
		Short: "List shops with their active sale counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, *configPath, func(ctx context.Context, e *env) error {
				return listShops(ctx, cmd.OutOrStdout(), e)
			})
		},
	}
}

func newSalesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sales <shop-id>",
		Short: "Show a shop's sales as buyers see them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid shop id %q", args[0])
			}
			return withEnv(cmd, *configPath, func(ctx context.Context, e *env) error {
				return showSales(ctx, cmd.OutOrStdout(), e, id)
			})
		},
	}
}

func newDepositCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <player-uuid> <amount>",
		Short: "Credit a player's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid player uuid %q", args[0])
			}
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			return withEnv(cmd, *configPath, func(ctx context.Context, e *env) error {
				return deposit(ctx, cmd.OutOrStdout(), e, player, amount)
			})
		},
	}
}

func newBalanceCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <player-uuid>",
		Short: "Show a player's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid player uuid %q", args[0])
			}
			return withEnv(cmd, *configPath, func(ctx context.Context, e *env) error {
				balance, err := e.ledger.Balance(ctx, player)
				if err != nil {
					return err
				}
				neutral.Fprintf(cmd.OutOrStdout(), "%s  %s\n", player, e.money.Format(balance))
				return nil
			})
		},
	}
}

func listShops(ctx context.Context, w io.Writer, e *env) error {
	if _, err := e.registry.Load(ctx); err != nil {
		return err
	}
	shops := e.registry.Loaded()
	if len(shops) == 0 {
		warn.Fprintln(w, "No shops yet.")
		return nil
	}

	accent.Fprintf(w, "%-6s %-24s %-12s %s\n", "ID", "ITEM", "TYPE", "SALES")
	for _, shop := range shops {
		sales, err := e.sales.ByShop(ctx, shop)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-6d %-24s %-12s %d\n", shop.ID, shop.Key.String(), shop.Type, len(sales))
	}
	return nil
}

func showSales(ctx context.Context, w io.Writer, e *env, shopID int64) error {
	if _, err := e.registry.Load(ctx); err != nil {
		return err
	}
	shop, ok := e.registry.ByID(shopID)
	if !ok {
		return fmt.Errorf("shop %d: %w", shopID, auction.ErrShopNotLoaded)
	}
	sales, err := e.sales.ByShop(ctx, shop)
	if err != nil {
		return err
	}
	if len(sales) == 0 {
		warn.Fprintf(w, "Shop %d has no sales.\n", shopID)
		return nil
	}

	for _, sale := range sales {
		trade := sale.TradeStack()
		accent.Fprintf(w, "%dx %s\n", trade.Amount, shop.Key.String())
		for _, line := range trade.Lore() {
			fmt.Fprintf(w, "  %s\n", renderLore(line))
		}
	}
	return nil
}

func deposit(ctx context.Context, w io.Writer, e *env, player uuid.UUID, amount float64) error {
	if err := e.ledger.Deposit(ctx, player, amount); err != nil {
		return err
	}
	balance, err := e.ledger.Balance(ctx, player)
	if err != nil {
		return err
	}
	success.Fprintf(w, "Deposited %s. Balance: %s\n", e.money.Format(amount), e.money.Format(balance))
	return nil
}
