package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/classinsight/internal/analysis"
	"github.com/pavelanni/classinsight/internal/handler"
	appI18n "github.com/pavelanni/classinsight/internal/i18n"
	"github.com/pavelanni/classinsight/internal/ingest"
	"github.com/pavelanni/classinsight/internal/llm"
	"github.com/pavelanni/classinsight/internal/llm/prompts"
	"github.com/pavelanni/classinsight/internal/model"
	"github.com/pavelanni/classinsight/internal/report"
	"github.com/pavelanni/classinsight/internal/store"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "classinsight",
		Short: "Class-level analytics for free-text student answers",
	}

	serve := serveCmd()
	root.AddCommand(serve, analyzeCmd(), exportCmd(), overrideCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `classinsight --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "classinsight.db", "SQLite database path")
	f.String("redis-addr", "", "Redis address for the run cache (empty disables caching)")
	f.Duration("redis-ttl", store.DefaultCacheTTL, "Lifetime of cached runs")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addAnalysisFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("max-clusters", analysis.DefaultMaxClusters, "Upper bound on answer clusters per question")
	f.Uint64("seed", analysis.DefaultSeed, "Seed for k-means initialisation")
	f.Int("restarts", analysis.DefaultRestarts, "k-means restarts per question")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP analytics API",
		RunE:  runServe,
	}
	addCommonFlags(cmd)
	addAnalysisFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default report language (en, ru)")
	f.String("teacher", "", "Teacher name printed on reports")
	f.String("llm-url", "", "OpenAI-compatible API base URL for teaching-action drafts (empty disables drafting)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("prompt-variant", string(prompts.PromptStandard), "Draft prompt variant (brief, standard, detailed)")
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyse a CSV or JSON answer file and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	addCommonFlags(cmd)
	addAnalysisFlags(cmd)
	f := cmd.Flags()
	f.StringP("output", "o", "", "Write the full result as JSON to this path (- for stdout)")
	f.Bool("force", false, "Analyse again even if the file was analysed before")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored run as JSON or a plain-text report",
		RunE:  runExport,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("run-id", "", "Run to export (default: the last analysed run)")
	f.StringP("format", "f", "json", "Output format (json, text)")
	f.StringP("lang", "l", "en", "Report language for text output (en, ru)")
	f.String("teacher", "", "Teacher name printed on the export")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Replace the teaching action of one question in a stored run",
		RunE:  runOverride,
	}
	addCommonFlags(cmd)
	f := cmd.Flags()
	f.String("run-id", "", "Run to modify (default: the last analysed run)")
	f.StringP("question", "q", "", "Question ID (required)")
	f.String("action", "", "Teaching action text, stored verbatim (required)")

	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func setupLogging(v *viper.Viper) {
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

	v.SetEnvPrefix("CLASSINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("classinsight")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/classinsight")
	v.AddConfigPath("/etc/classinsight")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openStore opens the database and, when --redis-addr is set, puts the run
// cache in front of it. The returned close function releases both.
func openStore(ctx context.Context, v *viper.Viper) (*store.Store, func(), error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	addr := strings.TrimPrefix(v.GetString("redis-addr"), "redis://")
	if addr == "" {
		return db, func() { db.Close() }, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	slog.Info("run cache enabled", "redis_addr", addr, "ttl", v.GetDuration("redis-ttl"))
	db.WithCache(store.NewRedisRunCache(rdb, v.GetDuration("redis-ttl")))
	return db, func() {
		rdb.Close()
		db.Close()
	}, nil
}

func analysisConfig(v *viper.Viper) model.AnalysisConfig {
	return model.AnalysisConfig{
		MaxClusters: v.GetInt("max-clusters"),
		Seed:        v.GetUint64("seed"),
		Restarts:    v.GetInt("restarts"),
	}
}

// resolveRunID falls back to the last analysed run when --run-id is empty.
func resolveRunID(db *store.Store, v *viper.Viper) (string, error) {
	if id := v.GetString("run-id"); id != "" {
		return id, nil
	}
	id, err := db.GetMetadata(store.KeyLastRunID)
	if err != nil {
		return "", fmt.Errorf("read last run id: %w", err)
	}
	if id == "" {
		return "", errors.New("no runs analysed yet: pass --run-id or run `classinsight analyze` first")
	}
	return id, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, closeStore, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer closeStore()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// The drafter stays a nil interface when no LLM is configured.
	var drafter handler.Drafter
	if llmURL := v.GetString("llm-url"); llmURL != "" {
		promptVariant := strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant")))
		if !prompts.IsValidVariant(promptVariant) {
			slog.Warn("invalid prompt-variant, using standard", "variant", promptVariant)
			promptVariant = string(prompts.PromptStandard)
		}
		client, err := llm.New(llmURL, v.GetString("llm-key"), v.GetString("llm-model"), promptVariant)
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
		if err := client.Ping(ctx); err != nil {
			slog.Warn("LLM health check failed, drafts may fail", "url", llmURL, "error", err)
		} else {
			slog.Info("LLM endpoint OK", "url", llmURL, "model", v.GetString("llm-model"))
		}
		drafter = client
	}

	analyzer := analysis.NewAnalyzer(analysisConfig(v), slog.Default())
	h, err := handler.New(db, analyzer, drafter, handler.Config{Teacher: v.GetString("teacher")})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
		"max_clusters", v.GetInt("max-clusters"),
		"seed", v.GetUint64("seed"),
		"drafts_enabled", drafter != nil,
	)
	return http.ListenAndServe(addr, r)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	ctx := context.Background()

	db, closeStore, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer closeStore()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	hash := sha256sum(data)
	if !v.GetBool("force") {
		existing, err := db.RunForUpload(hash)
		if err != nil {
			return fmt.Errorf("check upload status for %s: %w", path, err)
		}
		if existing != "" {
			slog.Info("file already analysed, reusing run", "path", path, "run_id", existing)
			if err := db.SetMetadata(store.KeyLastRunID, existing); err != nil {
				return fmt.Errorf("record last run: %w", err)
			}
			return writeRun(ctx, db, existing, v.GetString("output"))
		}
	}

	records, err := ingest.Parse(filepath.Base(path), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("parse %s: no answers found", path)
	}

	analyzer := analysis.NewAnalyzer(analysisConfig(v), slog.Default())
	run := analyzer.Run(store.NewRunID(), ingest.GroupByQuestion(records))
	if err := db.SaveRun(ctx, run); err != nil {
		return err
	}
	if err := db.RecordUpload(hash, filepath.Base(path), run.RunID); err != nil {
		return fmt.Errorf("record upload for %s: %w", path, err)
	}
	if err := db.SetMetadata(store.KeyLastRunID, run.RunID); err != nil {
		return fmt.Errorf("record last run: %w", err)
	}

	slog.Info("analysed answers",
		"path", path,
		"run_id", run.RunID,
		"records", len(records),
		"questions", len(run.Questions),
		"students", run.TotalStudents,
		"avg_insight_score", run.AvgInsightScore,
	)
	if out := v.GetString("output"); out != "-" {
		fmt.Fprintln(cmd.OutOrStdout(), run.RunID)
	}
	return writeRun(ctx, db, run.RunID, v.GetString("output"))
}

func writeRun(ctx context.Context, db *store.Store, runID, outPath string) error {
	if outPath == "" {
		return nil
	}
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeOutput(outPath, func(w io.Writer) error {
		if _, err := w.Write(data); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	})
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	ctx := context.Background()

	db, closeStore, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer closeStore()

	runID, err := resolveRunID(db, v)
	if err != nil {
		return err
	}
	exp, err := db.ExportRun(ctx, runID, v.GetString("teacher"))
	if err != nil {
		return err
	}

	switch strings.ToLower(v.GetString("format")) {
	case "json":
		data, err := json.MarshalIndent(exp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		return writeOutput(v.GetString("output"), func(w io.Writer) error {
			if _, err := w.Write(data); err != nil {
				return err
			}
			// Ensure trailing newline.
			_, err := fmt.Fprintln(w)
			return err
		})
	case "text":
		lang := v.GetString("lang")
		if err := appI18n.Init(lang); err != nil {
			return fmt.Errorf("init i18n: %w", err)
		}
		ctx = appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(lang))
		return writeOutput(v.GetString("output"), func(w io.Writer) error {
			return report.WriteText(ctx, w, exp)
		})
	default:
		return fmt.Errorf("unknown format %q: use json or text", v.GetString("format"))
	}
}

func runOverride(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	ctx := context.Background()

	db, closeStore, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	defer closeStore()

	runID, err := resolveRunID(db, v)
	if err != nil {
		return err
	}
	questionID := v.GetString("question")
	if err := db.SetTeachingAction(ctx, runID, questionID, v.GetString("action")); err != nil {
		return err
	}
	slog.Info("teaching action overridden", "run_id", runID, "question_id", questionID)
	return nil
}

// writeOutput opens path (- or empty for stdout) and hands it to write.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
