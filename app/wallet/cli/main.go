// This program creates accounts, sends transfers and mines blocks against a
// ledger node.
package main

import "github.com/ardanlabs/powledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
