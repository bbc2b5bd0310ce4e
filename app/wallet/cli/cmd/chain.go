package cmd

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/client"
	"github.com/spf13/cobra"
)

var (
	chainFrom uint64
	chainTo   uint64
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print a range of blocks from the chain",
	Args:  cobra.NoArgs,
	RunE:  chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().Uint64VarP(&chainFrom, "from", "f", 0, "Index of the first block.")
	chainCmd.Flags().Uint64VarP(&chainTo, "to", "t", 0, "Index of the last block, defaults to the latest block.")
}

func chainRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	c := newClient()

	to := chainTo
	if !cmd.Flags().Changed("to") {
		height, err := c.Height(ctx)
		if err != nil {
			if client.IsNotFound(err) {
				return fmt.Errorf("the chain has no genesis block yet")
			}
			return fmt.Errorf("reading height: %w", err)
		}
		to = height
	}

	blocks, err := c.Blocks(ctx, chainFrom, to)
	if err != nil {
		return fmt.Errorf("reading blocks %d to %d: %w", chainFrom, to, err)
	}

	return printJSON(blocks)
}
