package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/raaihank/lang-sentinel/internal/config"
	"github.com/raaihank/lang-sentinel/internal/evaluate"
	"github.com/raaihank/lang-sentinel/internal/language"
	"github.com/raaihank/lang-sentinel/internal/logger"
	"github.com/raaihank/lang-sentinel/internal/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Configuration file path")
		inputFile   = flag.String("input", "", "Labeled corpus file (CSV, Parquet, or JSON)")
		batchSize   = flag.Int("batch-size", 1000, "Batch size for processing")
		maxMismatch = flag.Int("max-mismatches", 100, "Mismatch samples to keep")
		persist     = flag.Bool("persist", false, "Persist results to the evaluation store")
		listRuns    = flag.Bool("list-runs", false, "List stored evaluation runs and exit")
	)
	flag.Parse()

	if *inputFile == "" && !*listRuns {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input corpus.csv --batch-size 500\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input corpus.parquet --persist\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --list-runs\n", os.Args[0])
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting lang-sentinel evaluation",
		zap.String("version", "0.1.0"),
		zap.String("config", *configPath))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling operations...")
		cancel()
	}()

	// Open the evaluation store when it is needed
	var evalStore *store.Store
	if *persist || *listRuns {
		evalStore, err = store.NewStore(&store.Config{
			DatabaseURL:     cfg.Store.DatabaseURL,
			MaxOpenConns:    cfg.Store.MaxOpenConns,
			MaxIdleConns:    cfg.Store.MaxIdleConns,
			ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
		}, log.Logger)
		if err != nil {
			log.Fatal("Failed to open evaluation store", zap.Error(err))
		}
		defer evalStore.Close()
	}

	if *listRuns {
		if err := printRuns(ctx, evalStore); err != nil {
			log.Fatal("Failed to list runs", zap.Error(err))
		}
		return
	}

	if _, err := os.Stat(*inputFile); os.IsNotExist(err) {
		log.Fatal("Input file does not exist", zap.String("file", *inputFile))
	}

	// Build the detection engine
	detector, err := language.New(cfg.Detection, log.WithComponent("language"))
	if err != nil {
		log.Fatal("Failed to create detector", zap.Error(err))
	}

	pipeline := evaluate.NewPipeline(detector, evalStore, &evaluate.Config{
		BatchSize:      *batchSize,
		ValidateData:   true,
		ProgressReport: 1000,
		MaxMismatches:  *maxMismatch,
		PersistResults: *persist,
	}, log.Logger)

	result, err := pipeline.ProcessFile(ctx, *inputFile)
	if err != nil {
		log.Fatal("Evaluation failed", zap.Error(err))
	}

	printResult(*inputFile, result)
	log.Info("Evaluation pipeline completed successfully")
}

// printResult writes a human-readable evaluation report
func printResult(inputFile string, result *evaluate.EvalResult) {
	fmt.Printf("\n=== Evaluation Report: %s ===\n", inputFile)
	fmt.Printf("Total Samples:    %d\n", result.TotalRecords)
	fmt.Printf("Correct:          %d\n", result.Correct)
	fmt.Printf("Incorrect:        %d\n", result.Incorrect)
	fmt.Printf("Skipped:          %d\n", result.Skipped)
	fmt.Printf("Accuracy:         %.2f%%\n", result.Accuracy*100)
	fmt.Printf("Duration:         %v\n", result.Duration)
	if result.TotalRecords > 0 {
		fmt.Printf("Avg Detection:    %v\n", result.DetectionTime/time.Duration(result.TotalRecords))
	}

	fmt.Printf("\n--- By Method ---\n")
	for method, count := range result.ByMethod {
		fmt.Printf("%-20s %d\n", method, count)
	}

	fmt.Printf("\n--- By Language ---\n")
	languages := make([]string, 0, len(result.ByLanguage))
	for lang := range result.ByLanguage {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	for _, lang := range languages {
		b := result.ByLanguage[lang]
		accuracy := 0.0
		if b.Total > 0 {
			accuracy = float64(b.Correct) / float64(b.Total) * 100
		}
		fmt.Printf("%-6s %6d samples  %6.2f%%\n", lang, b.Total, accuracy)
	}

	if len(result.MismatchSample) > 0 {
		fmt.Printf("\n--- Mismatch Sample (%d) ---\n", len(result.MismatchSample))
		for _, m := range result.MismatchSample {
			fmt.Printf("expected=%s detected=%s confidence=%.3f method=%s len=%d\n",
				m.Expected, m.Detected, m.Confidence, m.Method, m.TextLength)
		}
	}
}

// printRuns lists stored evaluation runs
func printRuns(ctx context.Context, evalStore *store.Store) error {
	runs, err := evalStore.ListRuns(ctx, 20)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Stored Evaluation Runs ===\n")
	for _, run := range runs {
		fmt.Printf("#%d %s  corpus=%s classifier=%s total=%d accuracy=%.2f%%\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04"), run.Corpus,
			run.Classifier, run.Total, run.Accuracy*100)
	}
	if len(runs) == 0 {
		fmt.Println("(none)")
	}
	return nil
}
