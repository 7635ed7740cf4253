package main

import "github.com/ardanlabs/walletdash/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
