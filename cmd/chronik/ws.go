package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/givelotus/chronik-go/client"
)

var wsCmd = &cobra.Command{
	Use:   "ws",
	Short: "Stream websocket messages until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync() //nolint:errcheck

		subFlags, _ := cmd.Flags().GetStringSlice("sub")
		subs := make([]subscription, 0, len(subFlags))
		for _, s := range subFlags {
			sub, err := parseSubscription(s)
			if err != nil {
				return err
			}
			subs = append(subs, sub)
		}

		c, err := newClient(cfg, l)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if cfg.PrometheusConfig.Enabled {
			srv := startPrometheusServer(cfg.PrometheusConfig.Port, l)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		wsCfg := client.WsConfig{
			AutoReconnect:  cfg.WsConfig.AutoReconnect,
			ReconnectDelay: cfg.WsConfig.ReconnectDelay,
			OnMessage: func(msg client.WsMsg) {
				if err := printJSON(cmd, msg); err != nil {
					l.Sugar().Errorw("Failed to print message", zap.Error(err))
				}
			},
			OnConnect: func() {
				l.Sugar().Infow("Connected", zap.String("url", c.WsURL()))
			},
			OnReconnect: func(err error) {
				l.Sugar().Warnw("Connection lost, reconnecting", zap.Error(err))
			},
			OnError: func(err error) {
				l.Sugar().Errorw("Websocket error", zap.Error(err))
			},
		}
		ws := c.WS(ctx, wsCfg)
		defer ws.Close()

		for _, sub := range subs {
			if err := ws.Subscribe(sub.scriptType, sub.payload); err != nil {
				return err
			}
		}

		<-ws.Done()
		l.Sugar().Info("Websocket closed")
		return nil
	},
}

type subscription struct {
	scriptType client.ScriptType
	payload    string
}

// parseSubscription reads "type:payload", e.g. "p2pkh:76a0...".
func parseSubscription(s string) (subscription, error) {
	scriptType, payload, ok := strings.Cut(s, ":")
	if !ok || payload == "" {
		return subscription{}, fmt.Errorf("--sub %q: expected type:payload", s)
	}
	t, err := client.ParseScriptType(scriptType)
	if err != nil {
		return subscription{}, fmt.Errorf("--sub %q: %w", s, err)
	}
	return subscription{scriptType: t, payload: payload}, nil
}

func startPrometheusServer(port int, l *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Sugar().Infow("Starting prometheus server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Sugar().Errorw("Prometheus server failed", zap.Error(err))
		}
	}()
	return srv
}
