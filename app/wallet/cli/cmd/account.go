package cmd

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/client"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account <name|address>",
	Short: "Print the account with its transaction history",
	Args:  cobra.ExactArgs(1),
	RunE:  accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	ns, err := names()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	acct, err := newClient().Account(ctx, ns.Resolve(args[0]))
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("account %q doesn't exist", args[0])
		}
		return fmt.Errorf("reading account: %w", err)
	}

	return printJSON(acct)
}
