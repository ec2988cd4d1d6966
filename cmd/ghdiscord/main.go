// Command ghdiscord serves the Github webhook endpoint and relays issue
// comments to Discord.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contrib.go.opencensus.io/exporter/stackdriver"
	"github.com/octo/ghdiscord"
	"github.com/octo/ghdiscord/actions/notify"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"
)

const addr = ":3000"

func main() {
	if projectID := os.Getenv("GOOGLE_CLOUD_PROJECT"); projectID != "" {
		exporter, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: projectID})
		if err != nil {
			log.Fatalf("stackdriver.NewExporter(%q): %v", projectID, err)
		}
		if err := exporter.StartMetricsExporter(); err != nil {
			log.Fatalf("StartMetricsExporter(): %v", err)
		}
		defer exporter.StopMetricsExporter()
		defer exporter.Flush()

		trace.RegisterExporter(exporter)
	}

	var views []*view.View
	views = append(views, ochttp.DefaultServerViews...)
	views = append(views, ochttp.DefaultClientViews...)
	views = append(views, notify.Views...)
	if err := view.Register(views...); err != nil {
		log.Fatalf("view.Register(): %v", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           ghdiscord.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown(): %v", err)
		}
	}()

	log.Printf("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("ListenAndServe(): %v", err)
	}
	<-idle
}
