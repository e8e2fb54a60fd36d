package main

import (
	"github.com/spf13/cobra"
)

func main() {
	cfg := &flags{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
