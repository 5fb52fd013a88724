// Command juled runs the julea-go server daemon: it binds a listen
// address, loads a back-end and metadata store from a configuration
// file, and serves wire frames until told to stop.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"net/http"

	"github.com/julea-project/julea-go/config"
	"github.com/julea-project/julea-go/julog"
	"github.com/julea-project/julea-go/metadata"
	"github.com/julea-project/julea-go/metadata/kv"
	"github.com/julea-project/julea-go/server"
)

var configPath string
var metricsAddr string

var rootCmd = &cobra.Command{
	Use:   "juled",
	Short: "Run the julea-go server daemon",
	Long: `
juled loads a storage back-end and metadata store from a configuration
file, then accepts connections and serves Create/Delete/Read/Write/Status
requests against them, applying the server side of the transformation
engine before any write reaches storage and after any read leaves it.`,
	RunE: runDaemon,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "/etc/julea-go/config.yaml", "Path to the configuration file")
	flags.StringVar(&metricsAddr, "metrics", ":9090", "Address to serve Prometheus metrics on")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer watcher.Close()
	cfg := watcher.Current()

	backend, err := config.OpenObjectBackend(cfg)
	if err != nil {
		return fmt.Errorf("open object backend: %w", err)
	}
	defer backend.Close()

	db, err := kv.Start("juled", cfg.KVPath)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer db.Stop(false)
	store := metadata.NewStore(db)

	reg := prometheus.NewRegistry()
	stats := server.NewStats(reg)
	handler := server.NewHandler(store, backend, stats)

	daemon, err := server.Listen(cfg.ListenAddress, handler)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		julog.Infof(nil, "serving metrics on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			julog.Errorf(nil, "metrics server: %v", err)
		}
	}()

	julog.Infof(nil, "juled listening on %s", cfg.ListenAddress)
	return daemon.Serve(context.Background())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
