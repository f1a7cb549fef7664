package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cuemby/mojokv/pkg/kv"
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets KVPATH VER",
	Short: "List every bucket registered at a store version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ver, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("parse ver: %w", err)
		}
		return runBuckets(args[0], uint32(ver))
	},
}

func runBuckets(kvpath string, ver uint32) error {
	bmap, err := kv.LoadBucketMap(kvpath, ver)
	if err != nil {
		return fmt.Errorf("load bucket map: %w", err)
	}

	for name, bver := range bmap.Buckets {
		fmt.Printf("%s -> %d\n", name, bver)
	}
	return nil
}
