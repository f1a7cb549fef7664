package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cuemby/mojokv/pkg/kv"
)

var truncateCmd = &cobra.Command{
	Use:   "truncate KVPATH BUCKET BYTES",
	Short: "Truncate a bucket to a byte size and sync the store",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sz, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("parse bytes: %w", err)
		}
		return runTruncate(args[0], args[1], sz)
	},
}

func runTruncate(kvpath, bucket string, sz uint64) error {
	st, err := kv.LoadState(kvpath)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if sz%uint64(st.PageSize()) != 0 {
		return &kv.KeyNotMultipleError{Key: sz}
	}

	store, err := kv.Writable(kvpath, false, nil, nil)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	b, err := store.Open(bucket, kv.ModeWrite)
	if err != nil {
		return fmt.Errorf("open bucket: %w", err)
	}
	defer b.Close()

	if err := b.Truncate(sz); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if err := b.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	fmt.Printf("bucket %s truncated to %d bytes\n", bucket, sz)
	return nil
}
