// Command primerscan-server provides a REST API for primer-anchored read
// classification.
//
// Usage:
//
//	primerscan-server [flags]
//
// Flags:
//
//	--port     Port to listen on (default: 8080)
//	--host     Host to bind to (default: localhost)
//	--config   Settings file for primers, library and scores
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/aria-lang/primerscan-go/api/handlers"
	"github.com/aria-lang/primerscan-go/api/middleware"
	"github.com/aria-lang/primerscan-go/internal/config"
	"github.com/aria-lang/primerscan-go/pkg/primerscan"
)

var (
	port       int
	host       string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:     "primerscan-server",
	Short:   "REST API for primer-anchored read classification",
	Version: primerscan.Version(),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	rootCmd.Flags().StringVar(&host, "host", "localhost", "Host to bind to")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "settings file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRouter(engine *primerscan.Engine) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	handlers.Routes(r, engine)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(homePage))
	})
	return r
}

func serve() error {
	v, err := config.New(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	engine, err := primerscan.NewEngine(cfg)
	if err != nil {
		return err
	}
	set := engine.Primers()
	log.Printf("Primers: forward %s, reverse %s; library %d±%d (%s)",
		set.Forward.Bases, set.Reverse.Bases, cfg.Library.Length, cfg.Library.Tolerance, cfg.Library.Mode)

	addr := fmt.Sprintf("%s:%d", host, port)
	server := &http.Server{
		Addr:         addr,
		Handler:      newRouter(engine),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Could not gracefully shutdown: %v\n", err)
		}
		close(done)
	}()

	log.Printf("primerscan API server starting on http://%s\n", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}

	<-done
	log.Println("Server stopped")
	return nil
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>primerscan API</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; }
        pre { background: #f3f4f6; padding: 1rem; border-radius: 0.5rem; overflow-x: auto; }
        .endpoint { margin: 1rem 0; padding: 1rem; border: 1px solid #e5e7eb; border-radius: 0.5rem; }
        .method { display: inline-block; padding: 0.25rem 0.5rem; background: #10b981; color: white; border-radius: 0.25rem; font-size: 0.875rem; }
    </style>
</head>
<body>
    <h1>primerscan API</h1>
    <p>Classify sequencing reads by their flanking primers.</p>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/align</code>
        <p>Place a primer inside a read (affine-gap local alignment).</p>
        <pre>{"read": "ACGTACGTTTTTGGCCAATT", "primer": "AATT", "anchor": "end"}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/classify</code>
        <p>Accept, reject or flag each read as ambiguous.</p>
        <pre>{"reads": [{"id": "r1", "sequence": "ACGT...", "quality": "IIII..."}]}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/evaluate</code>
        <p>Count outcomes over named groups of reads.</p>
        <pre>{"groups": [{"name": "run1", "reads": [...]}], "scores": {"match_score": 4, "mismatch_score": -3, "open_gap_score": -4, "extend_gap_score": -3}}</pre>
    </div>
</body>
</html>`
