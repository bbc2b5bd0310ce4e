package cmd

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/client"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <name|address>",
	Short: "Print the balance of the account",
	Args:  cobra.ExactArgs(1),
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
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

	fmt.Println("For Account:", ns.Lookup(acct.Address))
	fmt.Println(acct.Balance)
	return nil
}
