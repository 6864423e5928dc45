package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"genealogy/internal/config"
	"genealogy/internal/database"
	"genealogy/internal/logging"
	"genealogy/internal/repository"
	"genealogy/internal/service"
	"genealogy/internal/storage"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	exportBucket := exportCmd.String("s3-bucket", "", "Upload the archive to this S3 bucket instead of a local file")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path")
	importBucket := importCmd.String("s3-bucket", "", "Download the archive from this S3 bucket")
	importKey := importCmd.String("s3-key", "", "Object key of the archive in -s3-bucket")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt for -clear")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	logger := logging.New("backup", cfg.LogLevel).With("command", os.Args[1])

	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		backupService, closeDB := openBackupService(cfg, logger)
		defer closeDB()
		err = handleExport(ctx, backupService, storeConfig(cfg, *exportBucket), *exportOutput, logger)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" && *importKey == "" {
			fmt.Println("Error: -input or -s3-key is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		if *importClear && !*importYes && !confirm() {
			fmt.Println("Import cancelled")
			return
		}
		backupService, closeDB := openBackupService(cfg, logger)
		defer closeDB()
		err = handleImport(ctx, backupService, storeConfig(cfg, *importBucket), *importInput, *importKey, *importClear, logger)

	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Err(ctx, "backup failed", "err", err)
		os.Exit(1)
	}
}

func openBackupService(cfg *config.Config, logger *logging.Logger) (*service.BackupService, func()) {
	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		fail(fmt.Errorf("failed to initialize database: %w", err))
	}

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(); err != nil {
		db.Close()
		fail(fmt.Errorf("failed to run migrations: %w", err))
	}

	svc := service.NewBackupService(db,
		repository.NewMemberRepository(db),
		repository.NewClanRepository(db),
		repository.NewMarriageRepository(db),
		service.Options{Logger: logger},
	)
	return svc, func() { db.Close() }
}

// storeConfig merges a -s3-bucket flag over the configured bucket
func storeConfig(cfg *config.Config, bucket string) storage.Config {
	if bucket == "" {
		bucket = cfg.S3Bucket
	}
	return storage.Config{
		Bucket:    bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		PathStyle: cfg.S3PathStyle,
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, s3cfg storage.Config, outputPath string, logger *logging.Logger) error {
	// Local file unless a bucket is configured and no output path was given
	if outputPath != "" || s3cfg.Bucket == "" {
		return exportToFile(ctx, backupService, outputPath, logger)
	}

	store, err := storage.New(ctx, s3cfg)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	archive, err := backupService.Export(ctx, &buf)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	key := storage.ArchiveKey(archive.ID, archive.ExportedAt)
	if err := store.Put(ctx, key, buf.Bytes()); err != nil {
		return err
	}

	logger.Info(ctx, "export uploaded",
		"bucket", store.Bucket(),
		"key", key,
		"members", len(archive.Members),
		"bytes", buf.Len())
	return nil
}

func exportToFile(ctx context.Context, backupService *service.BackupService, outputPath string, logger *logging.Logger) error {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	logger.Info(ctx, "exporting database", "output", outputPath)
	archive, err := backupService.Export(ctx, file)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat output file: %w", err)
	}
	logger.Info(ctx, "export complete",
		"archive_id", archive.ID.String(),
		"members", len(archive.Members),
		"size_mb", fmt.Sprintf("%.2f", float64(fileInfo.Size())/1024/1024))
	return nil
}

func handleImport(
	ctx context.Context,
	backupService *service.BackupService,
	s3cfg storage.Config,
	inputPath, key string,
	clearData bool,
	logger *logging.Logger,
) error {
	var (
		source io.ReadCloser
		err    error
	)
	if key != "" {
		store, err := storage.New(ctx, s3cfg)
		if err != nil {
			return err
		}
		source, err = store.Get(ctx, key)
		if err != nil {
			return err
		}
		logger.Info(ctx, "importing database", "bucket", store.Bucket(), "key", key, "clear", clearData)
	} else {
		source, err = os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		logger.Info(ctx, "importing database", "input", inputPath, "clear", clearData)
	}
	defer source.Close()

	archive, err := backupService.Import(ctx, source, clearData)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	logger.Info(ctx, "import complete",
		"archive_id", archive.ID.String(),
		"clans", len(archive.Clans),
		"members", len(archive.Members),
		"marriages", len(archive.Marriages))
	return nil
}

func confirm() bool {
	fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "backup: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Genealogy Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to a JSON archive")
	fmt.Println("  backup import [options]    Import database from a JSON archive")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>       Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println("  -s3-bucket <name>    Upload to S3 under backups/YYYY/MM/DD/<id>.json")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>        Input file path")
	fmt.Println("  -s3-bucket <name>    Bucket to download from (default: GENEALOGY_S3_BUCKET)")
	fmt.Println("  -s3-key <key>        Object key of the archive")
	fmt.Println("  -clear               Clear existing data before import (WARNING: destructive)")
	fmt.Println("  -yes                 Do not prompt before -clear")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Export database")
	fmt.Println("  backup export")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println("  backup export -s3-bucket family-archives")
	fmt.Println()
	fmt.Println("  # Import database (merge with existing data)")
	fmt.Println("  backup import -input backup.json")
	fmt.Println()
	fmt.Println("  # Import database (replace all data)")
	fmt.Println("  backup import -s3-key backups/2024/05/01/<id>.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GENEALOGY_DATABASE_TYPE    sqlite, sqlite-pure, postgres, pgx or mysql (default: sqlite)")
	fmt.Println("  GENEALOGY_DATABASE_PATH    SQLite database path (default: ./genealogy.db)")
	fmt.Println("  GENEALOGY_DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  GENEALOGY_S3_BUCKET        Default archive bucket")
	fmt.Println("  GENEALOGY_S3_REGION        Bucket region (default: us-east-1)")
	fmt.Println("  GENEALOGY_S3_ENDPOINT      Custom endpoint, e.g. MinIO")
}
