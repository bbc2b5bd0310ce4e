package cmd

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/client"
	"github.com/spf13/cobra"
)

var heightCmd = &cobra.Command{
	Use:   "height",
	Short: "Print the index of the latest block",
	Args:  cobra.NoArgs,
	RunE:  heightRun,
}

func init() {
	rootCmd.AddCommand(heightCmd)
}

func heightRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	height, err := newClient().Height(ctx)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("the chain has no genesis block yet")
		}
		return fmt.Errorf("reading height: %w", err)
	}

	fmt.Println(height)
	return nil
}
