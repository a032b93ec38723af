package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "reportd"}

	root.AddCommand(serveCMD(), researchCMD(), migrateCMD(), tokenCMD())
	_ = root.Execute()
}
