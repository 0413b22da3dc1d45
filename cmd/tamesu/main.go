// Package main is the Tamesu CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/agent"
	"github.com/hyperjump/tamesu/internal/cli"
	"github.com/hyperjump/tamesu/internal/config"
	"github.com/hyperjump/tamesu/internal/embedding"
	"github.com/hyperjump/tamesu/internal/extract"
	"github.com/hyperjump/tamesu/internal/fileid"
	"github.com/hyperjump/tamesu/internal/indexer"
	"github.com/hyperjump/tamesu/internal/kb"
	"github.com/hyperjump/tamesu/internal/keyword"
	"github.com/hyperjump/tamesu/internal/models"
	"github.com/hyperjump/tamesu/internal/server"
	"github.com/hyperjump/tamesu/internal/storage"
	"github.com/hyperjump/tamesu/internal/vector"
	"github.com/hyperjump/tamesu/internal/watcher"
	"github.com/hyperjump/tamesu/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tamesu/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "tamesu serve" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "generate":
		runGenerate()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("tamesu version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (watch events, file indexing, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Ingest.Watch {
		idx := components.Indexer
		exts := cfg.Ingest.Extensions
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Ingest.UploadDir,
			exts,
			func(path string) {
				if err := idx.IndexFile(context.Background(), path, exts); err != nil {
					logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
					return
				}
				if err := components.VectorIndex.Flush(); err != nil {
					logger.Warn("vector index flush failed", zap.Error(err))
				}
			},
			func(path string) {
				if err := idx.DeleteDocument(context.Background(), fileid.FileDocID(path)); err != nil {
					logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.KB,
		components.Agent,
		components.Indexer,
		components.Storage,
		components.VectorIndex,
		components.EmbedderKind,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if err := components.VectorIndex.Flush(); err != nil {
		logger.Warn("vector index flush failed", zap.Error(err))
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: tamesu ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		exts := cfg.Ingest.Extensions
		fmt.Printf("Scanning %s...\n", path)
		files, err := collectFiles(path, exts)
		if err != nil {
			fmt.Printf("Failed to scan directory: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Printf("No ingestable files in %s\n", path)
			return
		}
		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Println() }),
		)
		for _, f := range files {
			if err := components.Indexer.IndexFile(ctx, f, exts); err != nil {
				fmt.Printf("\nIndexing %s failed: %v\n", f, err)
				os.Exit(1)
			}
			_ = bar.Add(1)
		}
		if err := components.VectorIndex.Flush(); err != nil {
			logger.Warn("vector index flush failed", zap.Error(err))
		}
		fmt.Printf("Indexed %d file(s) from %s\n", len(files), path)
		return
	}
	// Single file: no extension filter
	if err := components.Indexer.IndexFile(ctx, path, nil); err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	if err := components.VectorIndex.Flush(); err != nil {
		logger.Warn("vector index flush failed", zap.Error(err))
	}
	absPath, _ := filepath.Abs(path)
	fmt.Printf("Document indexed: %s\n", fileid.FileDocID(absPath))
}

// collectFiles walks dir recursively and returns the regular files whose
// extension is in allowedExts, so the progress bar knows its total before
// indexing starts.
func collectFiles(dir string, allowedExts []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if len(allowedExts) > 0 && !hasAllowedExt(path, allowedExts) {
			return nil
		}
		info, statErr := os.Stat(path)
		if statErr != nil || !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func hasAllowedExt(path string, allowed []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, a := range allowed {
		if strings.TrimPrefix(strings.ToLower(a), ".") == ext {
			return true
		}
	}
	return false
}

// printQueryUsage prints query subcommand usage.
func printQueryUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: tamesu query [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  tamesu query discount code checkout
  tamesu query "discount code checkout"        # same as above
  tamesu query --n 10 checkout flow
  tamesu query --output json checkout flow     # structured JSON for other apps
`)
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting (e.g. "discount code" vs discount code).
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "tamesu query \"checkout\" -n 10"
// would otherwise leave -n unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runQuery() {
	queryArgs := argsReorder(os.Args[2:])

	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	nResults := fs.Int("n", 0, "number of hits (0 = configured top_k)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one hit per line), or json (parseable)")
	fs.Usage = func() { printQueryUsage(fs) }
	_ = fs.Parse(queryArgs)

	if fs.NArg() < 1 {
		printQueryUsage(fs)
		os.Exit(1)
	}
	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		printQueryUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	case "compact":
		format = cli.OutputCompact
	default:
		fmt.Printf("Unknown output format %q; use text, compact, or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids Bleve/SQLite lock conflicts).
		hits, err := queryViaHTTP(*serverURL, queryStr, *nResults)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteHits(os.Stdout, queryStr, hits, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct storage access (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	hits, err := components.KB.Query(ctx, queryStr, *nResults)
	if errors.Is(err, embedding.ErrEmbeddingUnavailable) {
		logger.Warn("similarity retrieval unavailable, using lexical retrieval", zap.Error(err))
		hits, err = components.KB.LexicalQuery(ctx, queryStr, *nResults)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHits(os.Stdout, queryStr, hits, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func queryViaHTTP(serverURL, query string, nResults int) ([]models.Hit, error) {
	body, err := json.Marshal(map[string]interface{}{"query": query, "n_results": nResults})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/kb/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Hits []models.Hit `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Hits, nil
}

func runGenerate() {
	genArgs := argsReorder(os.Args[2:])

	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run generation in-process)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(genArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: tamesu generate [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: tamesu generate [flags] <query>")
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		result, err := generateViaHTTP(*serverURL, queryStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteGenerationResult(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// In-process generation (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Agent.GenerateTestCases(context.Background(), queryStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteGenerationResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func generateViaHTTP(serverURL, query string) (*models.GenerationResult, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/testcases", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	EmbeddingProvider string `json:"embedding_provider"`
	VectorIndexType   string `json:"vector_index_type"`
	ChunkSize         int    `json:"chunk_size,omitempty"`
	ChunkOverlap      int    `json:"chunk_overlap,omitempty"`
	TopK              int    `json:"top_k,omitempty"`
	DatabasePath      string `json:"database_path,omitempty"`
	BleveIndexPath    string `json:"bleve_index_path,omitempty"`
	UploadDir         string `json:"upload_dir,omitempty"`
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Documents       int64                 `json:"documents"`
	Chunks          int64                 `json:"chunks"`
	VectorIndexSize int                   `json:"vector_index_size"`
	DiskUsageBytes  *int64                `json:"disk_usage_bytes,omitempty"`
	Config          *statusConfigResponse `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		debugMode := cfg.Debug
		logger, err := utils.NewLogger(debugMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger, debugMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		docCount, err := components.Storage.CountDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := components.Storage.CountChunks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Documents:       docCount,
			Chunks:          chunkCount,
			VectorIndexSize: components.VectorIndex.Count(),
			Config: &statusConfigResponse{
				EmbeddingProvider: string(components.EmbedderKind),
				VectorIndexType:   components.VectorIndexType,
				ChunkSize:         cfg.Retrieval.ChunkSize,
				ChunkOverlap:      cfg.Retrieval.ChunkOverlap,
				TopK:              cfg.Retrieval.TopK,
				DatabasePath:      cfg.Storage.DatabasePath,
				BleveIndexPath:    cfg.Storage.BleveIndexPath,
				UploadDir:         cfg.Ingest.UploadDir,
			},
		}
		diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath, cfg.Storage.SnapshotPath)
		if err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:          %d   # count of indexed documents\n", status.Documents)
		fmt.Printf("chunks:             %d   # count of text chunks\n", status.Chunks)
		fmt.Printf("vector_index_size:  %d   # count of vectors in similarity index\n", status.VectorIndexSize)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d   # storage + indices on disk\n", *status.DiskUsageBytes)
		}
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			fmt.Printf("embedding_provider: %s\n", status.Config.EmbeddingProvider)
			fmt.Printf("vector_index_type:  %s\n", status.Config.VectorIndexType)
			if status.Config.ChunkSize > 0 {
				fmt.Printf("chunk_size:         %d\n", status.Config.ChunkSize)
			}
			if status.Config.ChunkOverlap > 0 {
				fmt.Printf("chunk_overlap:      %d\n", status.Config.ChunkOverlap)
			}
			if status.Config.TopK > 0 {
				fmt.Printf("top_k:              %d\n", status.Config.TopK)
			}
			if status.Config.DatabasePath != "" {
				fmt.Printf("database_path:      %s\n", status.Config.DatabasePath)
			}
			if status.Config.BleveIndexPath != "" {
				fmt.Printf("bleve_index_path:   %s\n", status.Config.BleveIndexPath)
			}
			if status.Config.UploadDir != "" {
				fmt.Printf("upload_dir:         %s\n", status.Config.UploadDir)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: tamesu delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Indexer.DeleteDocument(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

// Components holds initialized services.
type Components struct {
	Storage         storage.Storage
	Embedder        embedding.Embedder
	EmbedderKind    embedding.Kind
	VectorIndex     vector.VectorIndex
	VectorIndexType string
	KeywordIndex    keyword.KeywordIndex
	KB              *kb.KnowledgeBase
	Agent           *agent.Agent
	Indexer         *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, embedderKind := embedding.Select(embedding.SelectConfig{
		Provider: cfg.Embedding.Provider,
		Remote: embedding.RemoteConfig{
			BaseURL:   cfg.Embedding.Remote.BaseURL,
			APIKeyEnv: cfg.Embedding.Remote.APIKeyEnv,
			Model:     cfg.Embedding.Remote.Model,
			Timeout:   time.Duration(cfg.Embedding.Remote.TimeoutSeconds) * time.Second,
			CacheSize: cfg.Embedding.CacheSize,
		},
		ModelPath:  cfg.Embedding.ModelPath,
		Dimensions: cfg.Embedding.Dimensions,
		MaxTokens:  cfg.Embedding.MaxTokens,
		CacheSize:  cfg.Embedding.CacheSize,
	}, logger)

	indexType := cfg.Index.Type
	if indexType == "" {
		indexType = string(vector.IndexTypeLocal)
	}
	vectorIndex, err := vector.New(vector.Config{
		Type:         cfg.Index.Type,
		URL:          cfg.Index.URL,
		Collection:   cfg.Index.Collection,
		SnapshotPath: cfg.Storage.SnapshotPath,
	}, embedder, logger)
	if err != nil {
		// Fall back to the local index when the remote backend is unreachable.
		if indexType != string(vector.IndexTypeLocal) {
			if logger != nil {
				logger.Warn("failed to create vector index, falling back to local",
					zap.String("requested_type", cfg.Index.Type),
					zap.Error(err))
			}
			vectorIndex, err = vector.New(vector.Config{
				Type:         string(vector.IndexTypeLocal),
				SnapshotPath: cfg.Storage.SnapshotPath,
			}, embedder, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize vector index: %w", err)
			}
			indexType = string(vector.IndexTypeLocal)
		} else {
			return nil, fmt.Errorf("failed to initialize vector index: %w", err)
		}
	}
	if logger != nil {
		logger.Info("vector index initialized",
			zap.String("type", indexType),
			zap.String("embedding_provider", string(embedderKind)))
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	idxOpts := []indexer.IndexerOption{}
	if debug && logger != nil {
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	idx, err := indexer.NewIndexer(store, vectorIndex, keywordIndex, &cfg.Retrieval, extract.NewExtractor(), idxOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}

	kbase := kb.NewKnowledgeBase(store, vectorIndex, keywordIndex, cfg.Retrieval.TopK, logger)

	var generator agent.Generator
	chatClient, err := agent.NewChatClient(agent.ChatConfig{
		BaseURL:   cfg.Generation.BaseURL,
		APIKeyEnv: cfg.Generation.APIKeyEnv,
		Model:     cfg.Generation.Model,
		Timeout:   time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("generation backend unavailable", zap.Error(err))
		}
	} else {
		generator = chatClient
	}
	agnt := agent.NewAgent(kbase, generator, cfg.Generation.FallbackPath, agent.WithLogger(logger))

	return &Components{
		Storage:         store,
		Embedder:        embedder,
		EmbedderKind:    embedderKind,
		VectorIndex:     vectorIndex,
		VectorIndexType: indexType,
		KeywordIndex:    keywordIndex,
		KB:              kbase,
		Agent:           agnt,
		Indexer:         idx,
	}, nil
}

func printUsage() {
	fmt.Println(`tamesu - Retrieval-grounded QA test-case generation

Usage:
  tamesu serve [flags]             Start the HTTP server
  tamesu ingest [flags] <path>     Ingest a file or directory into the knowledge base
  tamesu query [flags] <query>     Retrieve knowledge-base chunks for a query
  tamesu generate [flags] <query>  Generate QA test cases for a query
  tamesu delete [flags] <id>       Delete a document
  tamesu status [flags]            Show storage/index status
  tamesu version                   Show version
  tamesu help                      Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/tamesu/config.yaml)
  --debug            Enable debug logging (watch events, file indexing, etc.)

Ingest Flags:
  --config string    Config file path

Query Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to use direct storage when the server is not running.
  --n int            Number of hits (default: configured top_k)
  --output string    Output format: text, compact, or json (default: text)

Generate Flags:
  --config string    Config file path (for in-process generation)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run generation in-process.
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  tamesu serve
  tamesu ingest ./uploads
  tamesu query "discount code checkout"
  tamesu query --output json checkout flow
  tamesu generate "test cases for the SAVE15 discount code"
  tamesu delete doc-123
  tamesu status --output json`)
}
