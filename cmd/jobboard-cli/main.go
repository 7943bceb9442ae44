package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"job-board-go/internal/config"
	"job-board-go/internal/fetch"
	"job-board-go/internal/jobs"
	"job-board-go/internal/logging"
	"job-board-go/internal/models"
	"job-board-go/internal/seed"
	"job-board-go/internal/storage"
)

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		command    = flag.String("cmd", "list", "Command to run: list, get, add, edit, delete, seed, config")
		id         = flag.String("id", "", "Job id for get, edit and delete")
		file       = flag.String("file", "", "JSON input file for add, edit and seed (- reads stdin)")
		limit      = flag.Int("limit", 0, "Maximum number of jobs to list (0 lists all)")
		output     = flag.String("output", "console", "Output format: console, json")
		backend    = flag.String("backend", "", "Override the backend driver: rest, supabase, local")
		verbose    = flag.Bool("verbose", false, "Verbose output")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil && *verbose {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *backend != "" {
		cfg.Backend.Driver = *backend
	}

	if *command == "config" {
		runConfigCommand(cfg, *output)
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	logger := logging.Nop()
	if *verbose {
		logger = logging.NewSlogLogger(os.Stderr, logging.ParseLevel("debug"), "text")
	}

	store, closeStore, err := storage.New(cfg.Backend)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch *command {
	case "list":
		err = runListCommand(ctx, store, *limit, *output, cfg.Store.ExcerptLength, logger)
	case "get":
		err = runGetCommand(ctx, store, *id, *output, logger)
	case "add":
		err = runAddCommand(ctx, store, *file, *output, logger)
	case "edit":
		err = runEditCommand(ctx, store, *id, *file, *output, logger)
	case "delete":
		err = runDeleteCommand(ctx, store, *id, logger)
	case "seed":
		err = runSeedCommand(ctx, store, *file, cfg.Store, *output, logger)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		closeStore()
		log.Fatalf("%s failed: %v", *command, err)
	}
}

func runListCommand(ctx context.Context, store storage.Store, limit int, output string, excerptLength int, logger logging.Logger) error {
	hook := fetch.New(fetch.Jobs(store), logger)
	defer hook.Close()

	hook.Set(fetch.Query{Resource: "jobs", Limit: limit})
	state := hook.Wait(ctx)
	if state.Err != nil {
		return state.Err
	}
	if state.Loading {
		return fmt.Errorf("listing jobs timed out")
	}

	if output == "json" {
		outputJSON(state.Data)
		return nil
	}

	fmt.Printf("=== Jobs (%d) ===\n", len(state.Data))
	for _, job := range state.Data {
		fmt.Printf("[%s] %s - %s (%s, %s)\n", job.ID, job.Title, job.Company.Name, job.Type, job.Location)
		fmt.Printf("    %s\n", job.Excerpt(excerptLength))
	}
	return nil
}

func runGetCommand(ctx context.Context, store storage.Store, id, output string, logger logging.Logger) error {
	job := jobs.NewDetailLoader(store, logger).Load(ctx, map[string]string{"id": id})
	if job == nil {
		return fmt.Errorf("job %q not found", id)
	}

	if output == "json" {
		outputJSON(job)
	} else {
		outputConsole(job)
	}
	return nil
}

func runAddCommand(ctx context.Context, store storage.Store, file, output string, logger logging.Logger) error {
	var newJob models.NewJob
	if err := readJSON(file, &newJob); err != nil {
		return err
	}
	if newJob.Type == "" {
		newJob.Type = models.JobTypeFullTime
	}

	created, err := jobs.NewStore(store, logger).AddJob(ctx, newJob)
	if err != nil {
		return err
	}

	if output == "json" {
		outputJSON(created)
	} else {
		fmt.Printf("Added job %s\n", created.ID)
	}
	return nil
}

func runEditCommand(ctx context.Context, store storage.Store, id, file, output string, logger logging.Logger) error {
	var job models.Job
	if err := readJSON(file, &job); err != nil {
		return err
	}
	if id != "" {
		job.ID = id
	}

	updated, err := jobs.NewStore(store, logger).UpdateJob(ctx, job)
	if err != nil {
		return err
	}

	if output == "json" {
		outputJSON(updated)
	} else {
		fmt.Printf("Updated job %s\n", updated.ID)
	}
	return nil
}

func runDeleteCommand(ctx context.Context, store storage.Store, id string, logger logging.Logger) error {
	if err := jobs.NewStore(store, logger).DeleteJob(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted job %s\n", id)
	return nil
}

func runSeedCommand(ctx context.Context, store storage.Store, file string, storeCfg config.StoreConfig, output string, logger logging.Logger) error {
	if file == "" {
		return fmt.Errorf("-file is required for seed")
	}

	importer := seed.NewImporter(store, storeCfg.SeedBatchSize, logger).WithRateLimit(storeCfg.SeedRateLimit)

	var (
		result seed.Result
		err    error
	)
	if file == "-" {
		result, err = importer.Import(ctx, os.Stdin)
	} else {
		result, err = importer.ImportFile(ctx, file)
	}
	if err != nil {
		return err
	}

	if output == "json" {
		outputJSON(result)
		return nil
	}
	fmt.Println("=== Seed Results ===")
	fmt.Printf("Jobs Read: %d\n", result.Read)
	fmt.Printf("Jobs Saved: %d\n", result.Saved)
	fmt.Printf("Duplicates: %d\n", result.Duplicates)
	fmt.Printf("Invalid: %d\n", result.Invalid)
	fmt.Printf("Failed: %d\n", result.Failed)
	return nil
}

func runConfigCommand(cfg *config.Config, output string) {
	if output == "json" {
		masked := *cfg
		masked.Backend.SupabaseKey = maskString(cfg.Backend.SupabaseKey)
		outputJSON(masked)
		return
	}

	fmt.Println("Current Configuration:")
	fmt.Printf("Backend Driver: %s\n", cfg.Backend.Driver)
	switch cfg.Backend.Driver {
	case config.DriverREST:
		fmt.Printf("REST Base URL: %s\n", cfg.Backend.RESTBaseURL)
	case config.DriverSupabase:
		fmt.Printf("Supabase URL: %s\n", maskString(cfg.Backend.SupabaseURL))
		fmt.Printf("Supabase Key: %s\n", maskString(cfg.Backend.SupabaseKey))
		fmt.Printf("Table: %s\n", cfg.Backend.Table)
	case config.DriverLocal:
		fmt.Printf("Data Dir: %s\n", cfg.Backend.DataDir)
	}
	fmt.Printf("Server Address: %s\n", cfg.Server.Addr)
	fmt.Printf("Refresh Interval: %v\n", cfg.Store.RefreshInterval)
	fmt.Printf("Monitoring Enabled: %t\n", cfg.Monitoring.Enabled)
}

func readJSON(file string, out any) error {
	if file == "" {
		return fmt.Errorf("-file is required")
	}

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return nil
}

func outputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func outputConsole(job *models.Job) {
	fmt.Printf("=== %s ===\n", job.Title)
	fmt.Printf("ID: %s\n", job.ID)
	fmt.Printf("Type: %s\n", job.Type)
	fmt.Printf("Location: %s\n", job.Location)
	fmt.Printf("Salary: %s\n", job.Salary)
	fmt.Printf("\n%s\n\n", job.Description)
	fmt.Println("=== Company ===")
	fmt.Printf("Name: %s\n", job.Company.Name)
	if job.Company.Description != "" {
		fmt.Printf("About: %s\n", job.Company.Description)
	}
	fmt.Printf("Contact Email: %s\n", job.Company.ContactEmail)
	fmt.Printf("Contact Phone: %s\n", job.Company.ContactPhone)
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

func printUsage() {
	fmt.Println("Job Board CLI Tool")
	fmt.Println("Usage:")
	fmt.Println("  jobboard-cli [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  -cmd list     - List jobs, most recent first")
	fmt.Println("  -cmd get      - Show one job")
	fmt.Println("  -cmd add      - Add a job from a JSON file")
	fmt.Println("  -cmd edit     - Replace a job from a JSON file")
	fmt.Println("  -cmd delete   - Delete a job")
	fmt.Println("  -cmd seed     - Import a JSON fixture of jobs, skipping duplicates")
	fmt.Println("  -cmd config   - Show configuration")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config string   - Configuration file (default: config.json)")
	fmt.Println("  -id string       - Job id for get, edit and delete")
	fmt.Println("  -file string     - JSON input for add, edit and seed (- reads stdin)")
	fmt.Println("  -limit int       - Maximum number of jobs to list")
	fmt.Println("  -output string   - Output format: console, json (default: console)")
	fmt.Println("  -backend string  - Override the backend driver: rest, supabase, local")
	fmt.Println("  -verbose         - Verbose output")
	fmt.Println("  -help            - Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  jobboard-cli -cmd list -limit 3                       # Three most recent jobs")
	fmt.Println("  jobboard-cli -cmd get -id 42 -output json             # One job as JSON")
	fmt.Println("  jobboard-cli -cmd seed -file jobs.json -backend local # Seed the local store")
}
