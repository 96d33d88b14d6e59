package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	vldm "github.com/dcsommer/vldmgo"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Bootstraps against the seed node and reports cluster health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bindCommandFlags(cmd); err != nil {
			return err
		}

		cfg := clientConfigFromFlags()
		cl, err := vldm.Dial(context.Background(), cfg.SeedAddr(),
			vldm.WithDialTimeout(cfg.DialTimeout),
			vldm.WithRequestTimeout(cfg.RequestTimeout),
			vldm.WithBootstrapRetryInterval(cfg.BootstrapRetryInterval),
			vldm.WithProtocolTag(cfg.ProtocolTag),
		)
		if err != nil {
			fmt.Printf("bootstrap against %s failed: %v\n", cfg.SeedAddr(), err)
			return err
		}
		defer cl.Close()

		fmt.Printf("bootstrap against %s succeeded\n", cfg.SeedAddr())
		fmt.Println(cl.Metrics().String())
		return nil
	},
}
