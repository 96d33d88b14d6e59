package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	vldm "github.com/dcsommer/vldmgo"
	"github.com/dcsommer/vldmgo/store"
)

var getCmd = &cobra.Command{
	Use:   "get [store] [key]",
	Short: "Reads a key from a store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindCommandFlags(cmd); err != nil {
			return err
		}
		storeName, key := args[0], args[1]

		cfg := clientConfigFromFlags()
		cl, err := vldm.Dial(context.Background(), cfg.SeedAddr(),
			vldm.WithDialTimeout(cfg.DialTimeout),
			vldm.WithRequestTimeout(cfg.RequestTimeout),
			vldm.WithBootstrapRetryInterval(cfg.BootstrapRetryInterval),
			vldm.WithProtocolTag(cfg.ProtocolTag),
		)
		if err != nil {
			return fmt.Errorf("dial: %w", err)
		}
		defer cl.Close()

		st := store.New(cl, storeName)
		value, err := st.Get(key).Wait()
		if err != nil {
			return err
		}
		fmt.Printf("key=%s, value=%v\n", key, value)
		return nil
	},
}
