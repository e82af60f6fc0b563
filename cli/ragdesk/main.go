package main

import (
	"os"

	ragdeskcmder "github.com/papercomputeco/ragdesk/cmd/ragdesk"
)

func main() {
	cmd := ragdeskcmder.NewRagdeskCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
