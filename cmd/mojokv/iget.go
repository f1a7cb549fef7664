package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cuemby/mojokv/pkg/kv"
	"github.com/cuemby/mojokv/pkg/log"
)

var igetCmd = &cobra.Command{
	Use:   "iget KVPATH BUCKET VER KEY",
	Short: "View a bucket's index locator for a single key",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ver, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			return fmt.Errorf("parse ver: %w", err)
		}
		key, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return fmt.Errorf("parse key: %w", err)
		}
		return runIget(args[0], args[1], uint32(ver), uint32(key))
	},
}

func runIget(kvpath, bucket string, ver, key uint32) error {
	log.WithVersion("iget", ver).Debug().Str("bucket", bucket).Uint32("key", key).Msg("looking up locator at version")

	store, err := kv.ReadOnly(kvpath, ver)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	b, err := store.Open(bucket, kv.ModeRead)
	if err != nil {
		return fmt.Errorf("open bucket: %w", err)
	}
	defer b.Close()

	fmt.Printf("Max key: %d\n", b.MaxKey())

	val, found := b.Locator(key)
	if !found || !val.IsAllocated() {
		fmt.Println("Key not found")
		return nil
	}
	fmt.Printf("value: %s\n", val)
	return nil
}
