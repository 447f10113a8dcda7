package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"solar-loan/config"
	"solar-loan/logging"
)

var (
	cfgFile string
	v       = viper.New()
	cfg     config.Config
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "solarloan",
		Short: "Solar loan payment and credit line calculator",
		Long: `solarloan computes the monthly payment of a solar loan whose tax credit is
paid down as a lump sum, and the largest loan a monthly budget can carry.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(serveCmd())
	root.AddCommand(paymentCmd())
	root.AddCommand(helocCmd())
	root.AddCommand(quoteCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	return logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
}
