package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	chronik "github.com/givelotus/chronik-go"
	"github.com/givelotus/chronik-go/client"
	"github.com/givelotus/chronik-go/internal/config"
	"github.com/givelotus/chronik-go/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:          "chronik",
	Short:        "Query a Chronik indexer and inspect its protobuf messages",
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool(config.Debug, false, `"true" or "false"`)
	rootCmd.PersistentFlags().String(config.Url, config.DefaultUrl, `Chronik url with scheme and without trailing slash`)
	rootCmd.PersistentFlags().String(config.Schema, "v2", `Schema generation of the messages (v1, v2)`)
	rootCmd.PersistentFlags().Duration(config.Timeout, config.DefaultTimeout, `HTTP request timeout`)

	rootCmd.PersistentFlags().Bool(config.WsAutoReconnect, true, `Reconnect the websocket when the connection drops`)
	rootCmd.PersistentFlags().Duration(config.WsReconnectDelay, config.DefaultReconnectDelay, `Delay between websocket reconnection attempts`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, config.DefaultPrometheusPort, `The port to run the prometheus server on`)

	// setup sub commands
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(blockchainInfoCmd)
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(rawTxCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(blocksCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(utxosCmd)
	rootCmd.AddCommand(broadcastCmd)
	rootCmd.AddCommand(validateUtxosCmd)
	rootCmd.AddCommand(wsCmd)

	// bind any subcommand flags
	decodeCmd.Flags().String("type", "", "Message type, e.g. Tx")
	decodeCmd.Flags().String("hex", "", "Hex encoded payload; stdin is read as raw bytes when neither --hex nor --file is set")
	decodeCmd.Flags().String("file", "", "File with the raw payload")
	_ = decodeCmd.MarkFlagRequired("type")

	encodeCmd.Flags().String("type", "", "Message type, e.g. WsSub")
	encodeCmd.Flags().String("file", "", "File with the JSON message; stdin when unset")
	_ = encodeCmd.MarkFlagRequired("type")

	messagesCmd.Flags().Bool("enums", false, "List enums instead of messages")

	historyCmd.Flags().Int("page", 0, "Page index of the history")
	historyCmd.Flags().Int("page-size", 25, "Number of txs per page")

	broadcastCmd.Flags().Bool("skip-slp-check", false, "Broadcast even if the tx burns tokens")

	wsCmd.Flags().StringSlice("sub", nil, `Script to subscribe to as "type:payload", repeatable`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}

// setup reads the validated configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg := config.NewConfig()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug, Console: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, l, nil
}

func newCodec(cfg *config.Config, l *zap.Logger) (*chronik.Codec, error) {
	return chronik.New(cfg.ChronikConfig.Schema, chronik.WithLogger(l))
}

func newClient(cfg *config.Config, l *zap.Logger) (*client.Client, error) {
	opts := []client.Option{
		client.WithLogger(l),
		client.WithTimeout(cfg.ChronikConfig.Timeout),
	}
	if cfg.PrometheusConfig.Enabled {
		opts = append(opts, client.WithMetrics(prometheus.DefaultRegisterer))
	}
	return client.New(cfg.ChronikConfig.Url, opts...)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
