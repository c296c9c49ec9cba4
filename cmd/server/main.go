package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nickyhof/relq"
	"github.com/nickyhof/relq/db"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

type serverOptions struct {
	port      int
	relations string
	tlsCert   string
	tlsKey    string
	auth      AuthConfig
	logLevel  string
	logFormat string
	source    db.SourceConfig
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &serverOptions{}
	cmd := &cobra.Command{
		Use:           "relq-server",
		Short:         "Serve relational algebra queries over TCP",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.port, "port", 4321, "TCP port to listen on")
	flags.StringVarP(&opts.relations, "relations", "r", "", "relation definitions (path, file://, http(s)://, s3://, git+)")
	flags.StringVar(&opts.tlsCert, "tls-cert", "", "TLS certificate file")
	flags.StringVar(&opts.tlsKey, "tls-key", "", "TLS private key file")
	flags.StringVar(&opts.auth.JWTSecret, "jwt-secret", "", "shared secret for JWT authentication; enables AUTH")
	flags.StringVar(&opts.auth.Issuer, "jwt-issuer", "", "expected JWT issuer")
	flags.StringVar(&opts.auth.Audience, "jwt-audience", "", "expected JWT audience")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")
	flags.StringVar(&opts.source.Region, "s3-region", "", "AWS region for s3:// sources")
	flags.StringVar(&opts.source.Endpoint, "s3-endpoint", "", "custom S3 endpoint")
	cmd.MarkFlagRequired("relations")

	return cmd
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func serve(ctx context.Context, opts *serverOptions) error {
	if (opts.tlsCert == "") != (opts.tlsKey == "") {
		return fmt.Errorf("--tls-cert and --tls-key must be set together")
	}

	logger, err := newLogger(opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	instance, err := relq.Load(ctx, opts.relations, opts.source.WithEnvironment())
	if err != nil {
		return fmt.Errorf("failed to load relations: %w", err)
	}

	opts.auth.Enabled = opts.auth.JWTSecret != ""
	server := NewServerWithAuth(instance, &opts.auth)

	addr := fmt.Sprintf(":%d", opts.port)
	if opts.tlsCert != "" {
		err = server.StartTLS(addr, opts.tlsCert, opts.tlsKey)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		return err
	}

	fmt.Printf("relq server %s listening on %s (%d relations)\n", Version, server.Addr(), instance.Catalog.Len())
	fmt.Println("Send one query per line, 'quit' to disconnect")

	<-ctx.Done()
	logger.Info("shutting down")
	return server.Stop()
}
