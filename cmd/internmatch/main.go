package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ken/internmatch/internal/config"
	"github.com/ken/internmatch/internal/logger"
	"github.com/ken/internmatch/pkg/catalog"
	"github.com/ken/internmatch/pkg/embedding"
)

const (
	appName    = "internmatch"
	appVersion = "0.1.0"
)

func main() {
	// Define command-line flags
	var (
		showVersion = flag.Bool("version", false, "Display version information")
		configFile  = flag.String("config", "config.yaml", "Path to configuration file")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)

	// Parse command-line arguments
	flag.Parse()

	// Display version and exit if requested
	if *showVersion {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	// Get the subcommand
	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	if args[0] == "version" {
		fmt.Printf("%s version %s\n", appName, appVersion)
		return
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Process subcommands
	switch args[0] {
	case "serve":
		err = handleServe(cfg)
	case "recommend":
		err = handleRecommend(cfg, args[1:])
	case "catalog":
		err = handleCatalog(cfg, args[1:])
	case "embed":
		err = handleEmbed(cfg, args[1:])
	default:
		fmt.Printf("Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("%s failed: %v", args[0], err)
		logger.Sync()
		os.Exit(1)
	}
}

// engineConfig maps the embedding section onto the engine configuration
func engineConfig(cfg *config.Config) *embedding.Config {
	return &embedding.Config{
		Provider:       cfg.Embedding.Provider,
		ModelName:      cfg.Embedding.ModelName,
		BaseURL:        cfg.Embedding.BaseURL,
		APIKey:         cfg.Embedding.APIKey,
		Dimension:      cfg.Embedding.Dimension,
		ModelMaxLength: cfg.Embedding.MaxLength,
		ModelBatchSize: cfg.Embedding.BatchSize,
		MaxConcurrent:  cfg.Embedding.MaxConcurrent,
		LoadTimeout:    cfg.Embedding.LoadTimeout,
		RequestTimeout: cfg.Embedding.RequestTimeout,
	}
}

// catalogRecords returns the records from the configured file, or the
// built-in samples when no file is configured
func catalogRecords(cfg *config.Config) ([]catalog.Record, error) {
	if cfg.Catalog.Path == "" {
		return catalog.DefaultRecords(), nil
	}
	return catalog.LoadRecordsFile(cfg.Catalog.Path)
}

// bootstrap loads the model and encodes the catalog. Both must succeed
// before anything is served.
func bootstrap(ctx context.Context, cfg *config.Config) (*embedding.Engine, *catalog.Store, error) {
	start := time.Now()
	engine, err := embedding.NewEngine(ctx, engineConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Loaded embedding model %s (dimension %d) in %s",
		engine.ModelName(), engine.ModelDimension(), time.Since(start).Round(time.Millisecond))

	records, err := catalogRecords(cfg)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	if len(records) == 0 {
		logger.Warn("Internship catalog is empty; every recommendation will be empty")
	}

	start = time.Now()
	store, err := catalog.Load(ctx, engine, records, catalog.WithBatchSize(cfg.Embedding.BatchSize))
	if err != nil {
		engine.Close()
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("Encoded %d internships in %s", store.Size(), time.Since(start).Round(time.Millisecond))

	return engine, store, nil
}

func printUsage() {
	fmt.Printf("%s - Internship recommendations from skills and interests\n\n", appName)
	fmt.Println("Usage:")
	fmt.Println("  internmatch [flags] <command>")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
	fmt.Println("\nCommands:")
	fmt.Println("  serve      Start the HTTP server")
	fmt.Println("  recommend  Recommend internships (Usage: internmatch recommend --skills a,b --interests c)")
	fmt.Println("  catalog    List the internship catalog (Usage: internmatch catalog [--export <file>])")
	fmt.Println("  embed      Print the embedding of a text (Usage: internmatch embed <text>)")
	fmt.Println("  version    Display version information")
	fmt.Println("\nEmbedding:")
	fmt.Println("  The default provider is \"hashing\", a bag-of-words baseline that is not a")
	fmt.Println("  pretrained model. See config.example.yaml for sentence-transformers/all-MiniLM-L6-v2")
	fmt.Println("  through the huggingface provider.")
}
