package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cuemby/mojokv/pkg/kv"
	"github.com/cuemby/mojokv/pkg/log"
)

var iviewCmd = &cobra.Command{
	Use:   "iview KVPATH BUCKET VER",
	Short: "View a bucket's index header at a committed version",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ver, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			return fmt.Errorf("parse ver: %w", err)
		}
		additional, _ := cmd.Flags().GetBool("additional")
		keys, _ := cmd.Flags().GetBool("keys")
		return runIview(args[0], args[1], uint32(ver), additional, keys)
	},
}

func init() {
	iviewCmd.Flags().BoolP("additional", "a", false, "print additional logical size info")
	iviewCmd.Flags().BoolP("keys", "k", false, "print every allocated key")
}

func runIview(kvpath, bucket string, ver uint32, additional, keys bool) error {
	log.WithVersion("iview", ver).Debug().Str("bucket", bucket).Msg("loading index at version")

	store, err := kv.ReadOnly(kvpath, ver)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	_, compSz, idx, found, err := store.GetIndex(bucket)
	if err != nil {
		return fmt.Errorf("get index: %w", err)
	}
	if !found {
		fmt.Printf("Bucket %s does not exist\n", bucket)
		return nil
	}

	h := idx.Header
	fmt.Printf("Format version    : %d\n", h.FormatVer)
	fmt.Printf("Minimum version   : %d\n", h.MinVer)
	fmt.Printf("Maximum version   : %d\n", h.MaxVer)
	fmt.Printf("Active version    : %d\n", h.ActiveVer)
	fmt.Printf("Pages per slot    : %d\n", h.PPS)
	fmt.Printf("Maximum key       : %d\n", h.MaxKey)
	fmt.Printf("Compressed size   : %d\n", compSz)

	if additional {
		st, err := kv.LoadState(kvpath)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		fmt.Println("----------------------")
		fmt.Printf("Logical size      : %d\n", uint64(st.PageSize())*uint64(h.MaxKey+1))
	}

	if keys {
		fmt.Println("----------------------")
		fmt.Println("keys")
		it := idx.Iter(0, 0)
		for {
			key, val, ok := it.Next()
			if !ok {
				break
			}
			fmt.Printf("   %d %s\n", key, val)
		}
	}

	return nil
}
