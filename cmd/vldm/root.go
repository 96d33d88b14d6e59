package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dcsommer/vldmgo/config"
)

const Version = "0.1.0"

// RootCmd is the base command when vldm is invoked without a subcommand.
var RootCmd = &cobra.Command{
	Use:   "vldm",
	Short: "client for a partitioned, read-only key-value store",
	Long: fmt.Sprintf(`vldm (v%s)

A CLI client for a distributed, partitioned, read-only key-value store,
speaking the same length-prefixed TCP protocol as the vldmgo library.`, Version),
}

func init() {
	cobra.OnInitialize(initClientConfig)

	setupClientFlags(RootCmd)

	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(healthCmd)
	RootCmd.AddCommand(topologyCmd)
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vldm client version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vldm v%s\n", Version)
	},
}

// setupClientFlags adds the bootstrap seed and connection flags every
// subcommand needs to build a config.ClientConfig.
func setupClientFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("seed-host", "localhost", "Host of the cluster's bootstrap seed node")
	cmd.PersistentFlags().Int("seed-port", 6666, "Port of the cluster's bootstrap seed node")
	cmd.PersistentFlags().Duration("dial-timeout", 5*time.Second, "Per-connection dial timeout")
	cmd.PersistentFlags().Duration("request-timeout", 5*time.Second, "Per-request timeout")
	cmd.PersistentFlags().Duration("bootstrap-retry-interval", 10*time.Second, "How long to wait between failed bootstrap attempts")
	cmd.PersistentFlags().String("protocol-tag", "pb0", "3-byte protocol negotiation tag")
}

// initClientConfig loads .env/.env.local then configures viper's
// environment binding, exactly as the teacher's cmd/util/util.go does for
// its own client flags.
func initClientConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("vldm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// bindCommandFlags binds cmd's flags into viper so environment variables
// and flags resolve through the same GetX calls.
func bindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// clientConfigFromFlags builds a config.ClientConfig from whatever
// combination of flags and environment variables viper has bound.
func clientConfigFromFlags() *config.ClientConfig {
	return &config.ClientConfig{
		SeedHost:               viper.GetString("seed-host"),
		SeedPort:               viper.GetInt("seed-port"),
		DialTimeout:            viper.GetDuration("dial-timeout"),
		RequestTimeout:         viper.GetDuration("request-timeout"),
		BootstrapRetryInterval: viper.GetDuration("bootstrap-retry-interval"),
		ProtocolTag:            viper.GetString("protocol-tag"),
	}
}
