package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/powledger/foundation/blockchain/worker"
	"github.com/ardanlabs/powledger/foundation/logger"
	"github.com/spf13/cobra"
)

var (
	minerAddress string
	payload      string
	blocks       int
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine blocks and submit them to the node",
	Args:  cobra.NoArgs,
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringVarP(&minerAddress, "address", "a", "", "Name or address of the account to receive the rewards.")
	mineCmd.Flags().StringVarP(&payload, "payload", "p", "", "Data to carry in each block.")
	mineCmd.Flags().IntVarP(&blocks, "blocks", "n", 0, "Number of blocks to mine, 0 mines until interrupted.")
	mineCmd.MarkFlagRequired("address")
}

func mineRun(cmd *cobra.Command, args []string) error {
	ns, err := names()
	if err != nil {
		return err
	}

	log, err := logger.New("MINER")
	if err != nil {
		return err
	}
	defer log.Sync()

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	w := worker.New(worker.Config{
		Node:         newClient(),
		MinerAddress: ns.Resolve(minerAddress),
		Payload:      payload,
		EvHandler:    ev,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if blocks == 0 {
		w.Run()
		<-ctx.Done()
		w.Shutdown()
		return nil
	}

	for i := 0; i < blocks; i++ {
		blk, err := w.MineOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("mining block: %w", err)
		}

		log.Infow("mined", "index", blk.Index, "hash", blk.Hash, "nonce", blk.Nonce)
	}

	return nil
}

