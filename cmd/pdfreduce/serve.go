package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wudi/pdfreduce/queue"
	"github.com/wudi/pdfreduce/web"
)

var (
	flagHost    string
	flagPort    int
	flagWorkDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web interface",
	Long: `Starts an HTTP server with a browser UI for uploading PDFs, queueing
reduction or text-extraction jobs, and downloading the results. Job progress
streams to the browser over a WebSocket.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&flagHost, "host", "127.0.0.1", "Address to listen on")
	f.IntVar(&flagPort, "port", 8080, "Port to listen on")
	f.StringVar(&flagWorkDir, "work-dir", "", "Directory for uploads and outputs (default: a temporary directory)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	workDir := flagWorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "pdfreduce-*")
		if err != nil {
			return fmt.Errorf("creating work directory: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	q := queue.New(log)
	srv, err := web.NewServer(q, log, workDir)
	if err != nil {
		return err
	}

	q.Start()
	defer q.Stop()

	addr := net.JoinHostPort(flagHost, fmt.Sprint(flagPort))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	if !flagQuiet {
		fmt.Printf("PDF Reducer listening on http://%s\n", addr)
		fmt.Printf("Work directory: %s\n", workDir)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
