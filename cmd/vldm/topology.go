package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	vldm "github.com/dcsommer/vldmgo"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Bootstraps against the seed node and dumps the cluster topology",
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
			return fmt.Errorf("bootstrap: %w", err)
		}
		defer cl.Close()

		fmt.Println(cl.Topology().String())
		return nil
	},
}
