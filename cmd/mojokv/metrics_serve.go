package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/cuemby/mojokv/pkg/log"
	"github.com/cuemby/mojokv/pkg/metrics"
)

var metricsServeCmd = &cobra.Command{
	Use:   "metrics-serve",
	Short: "Serve Prometheus metrics for store/bucket operations over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return runMetricsServe(addr)
	},
}

func init() {
	metricsServeCmd.Flags().String("addr", "127.0.0.1:9090", "address to serve /metrics on")
}

func runMetricsServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	logger := log.WithComponent("metrics-serve")
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	fmt.Printf("metrics endpoint: http://%s/metrics\n", addr)

	return http.ListenAndServe(addr, mux)
}
