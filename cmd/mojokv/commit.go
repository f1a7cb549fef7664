package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/mojokv/pkg/kv"
)

var commitCmd = &cobra.Command{
	Use:   "commit KVPATH",
	Short: "Advance the store's active version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommit(args[0])
	},
}

func runCommit(kvpath string) error {
	store, err := kv.Writable(kvpath, false, nil, nil)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	fmt.Printf("active version before commit: %d\n", store.ActiveVer())
	newVer, err := store.Commit()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	fmt.Printf("active version after commit: %d\n", newVer)
	return nil
}
