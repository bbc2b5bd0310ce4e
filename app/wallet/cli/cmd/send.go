package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	from   string
	to     string
	amount uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an amount from one account to another",
	Args:  cobra.NoArgs,
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&from, "from", "f", "", "Name or address of the sending account.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Name or address of the receiving account.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	ns, err := names()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	if err := newClient().Transfer(ctx, ns.Resolve(from), ns.Resolve(to), amount); err != nil {
		return fmt.Errorf("sending: %w", err)
	}

	fmt.Printf("sent %d from %s to %s\n", amount, from, to)
	return nil
}
