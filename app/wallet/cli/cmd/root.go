// Package cmd contains the wallet and miner commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/client"
	"github.com/ardanlabs/powledger/foundation/nameservice"
	"github.com/spf13/cobra"
)

// requestTimeout bounds the commands that make a single call to the node.
const requestTimeout = 15 * time.Second

var (
	url          string
	accountsPath string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	rootCmd.PersistentFlags().StringVarP(&accountsPath, "account-path", "p", "zblock/accounts/", "Path to the directory with named addresses.")
}

var rootCmd = &cobra.Command{
	Use:          "wallet",
	Short:        "Wallet and miner for a ledger node",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.New(url)
}

// names loads the local names so commands accept a name where an address
// is expected.
func names() (*nameservice.NameService, error) {
	ns, err := nameservice.New(accountsPath)
	if err != nil {
		return nil, fmt.Errorf("loading names: %w", err)
	}
	return ns, nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}
