package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/auction-house/internal/store/gormstore"
	_ "github.com/jensholdgaard/auction-house/internal/store/postgres"
)

func main() {
	configPath := "config.yaml"

	root := &cobra.Command{
		Use:          "auctionctl",
		Short:        "Inspect and administer the auction house store",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "path to configuration file")

	root.AddCommand(
		newShopsCmd(&configPath),
		newSalesCmd(&configPath),
		newDepositCmd(&configPath),
		newBalanceCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
