package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account on the node",
	Args:  cobra.NoArgs,
	RunE:  createRun,
}

var name string

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Name to save the address under.")
}

func createRun(cmd *cobra.Command, args []string) error {
	ns, err := names()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	acct, err := newClient().CreateAccount(ctx)
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	if name != "" {
		if err := ns.Save(name, acct.Address); err != nil {
			return fmt.Errorf("saving name for %s: %w", acct.Address, err)
		}
	}

	fmt.Println(acct.Address)
	return nil
}
