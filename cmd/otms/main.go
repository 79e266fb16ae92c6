package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/otms/internal/account"
	"github.com/pavelanni/otms/internal/auth"
	"github.com/pavelanni/otms/internal/exam"
	"github.com/pavelanni/otms/internal/handler"
	appI18n "github.com/pavelanni/otms/internal/i18n"
	"github.com/pavelanni/otms/internal/model"
	"github.com/pavelanni/otms/internal/store"
)

func main() {
	// A missing .env is fine; the environment and flags still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "otms",
		Short: "Online test management server",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), exportCmd(), takeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `otms --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addDBFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db-driver", store.DriverSQLite, "Database driver (sqlite, postgres)")
	f.String("db", "otms.db", "SQLite database path or PostgreSQL connection string")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("jwt-secret", "", "Secret used to sign access tokens (or set OTMS_JWT_SECRET)")
	f.Duration("token-ttl", 24*time.Hour, "Access token lifetime")
	f.Duration("submit-grace", 30*time.Second, "Extra time accepted after a timed test runs out")
	f.String("default-password", "123456", "Initial password for provisioned users")
	f.String("admin-password", "", "Initial admin password (or set OTMS_ADMIN_PASSWORD)")
	f.StringP("lang", "l", "en", "Fallback language for messages (en, ru)")
	addDBFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import test definitions from JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().String("teacher", "", "Username of the teacher who will own the imported tests (required)")
	addDBFlags(cmd)
	addLogFlags(cmd)
	_ = cmd.MarkFlagRequired("teacher")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export submitted test scores as JSON",
		RunE:  runExport,
	}
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	addDBFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("OTMS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("otms")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/otms")
	v.AddConfigPath("/etc/otms")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openStore(v *viper.Viper) (*store.Store, error) {
	db, err := store.New(v.GetString("db-driver"), v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := context.Background()

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	if n, err := db.CleanupRevokedTokens(ctx); err != nil {
		slog.Warn("cleanup revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("removed expired revoked tokens", "count", n)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	tokens, err := auth.NewIssuer(v.GetString("jwt-secret"), v.GetDuration("token-ttl"), db)
	if err != nil {
		return fmt.Errorf("create token issuer: %w", err)
	}

	cfg := model.ServerConfig{
		DefaultPassword: v.GetString("default-password"),
		SubmitGrace:     v.GetDuration("submit-grace"),
		Lang:            lang,
	}
	accounts := account.New(db, tokens, cfg)
	if _, err := accounts.SeedAdmin(ctx, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	handler.New(accounts, exam.New(db, cfg), tokens).Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db_driver", v.GetString("db-driver"),
		"lang", lang,
		"token_ttl", v.GetDuration("token-ttl"),
		"submit_grace", cfg.SubmitGrace,
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := exam.New(db, model.ServerConfig{})
	n, err := svc.ImportFiles(context.Background(), v.GetString("teacher"), args)
	if err != nil {
		return err
	}
	slog.Info("import finished", "tests", n, "files", len(args))
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	export, err := exam.New(db, model.ServerConfig{}).ExportScores(context.Background())
	if err != nil {
		return fmt.Errorf("export scores: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported scores", "count", export.Count)
	return nil
}
