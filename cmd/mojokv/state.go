package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/mojokv/pkg/kv"
)

var stateCmd = &cobra.Command{
	Use:   "state KVPATH",
	Short: "Print the store's internal state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		additional, _ := cmd.Flags().GetBool("additional")
		return runState(args[0], additional)
	},
}

func init() {
	stateCmd.Flags().BoolP("additional", "a", false, "print additional internal struct sizes")
}

func runState(kvpath string, additional bool) error {
	st, err := kv.LoadState(kvpath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	fmt.Printf("Format version  : %d\n", st.FormatVer())
	fmt.Printf("Minimum version : %d\n", st.MinVer())
	fmt.Printf("Active version  : %d\n", st.ActiveVer())
	fmt.Printf("Pages per slot  : %d\n", st.PPS())
	fmt.Printf("Page size       : %d\n", st.PageSize())
	fmt.Printf("File page size  : %d\n", st.FilePageSz())

	if additional {
		fmt.Println("----------------------------")
		fmt.Printf("Value wire size : %d bytes\n", kv.ValueWireLen)
	}

	return nil
}
