package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/manuscripts/internal/audit"
	"github.com/mrlokans/manuscripts/internal/config"
	"github.com/mrlokans/manuscripts/internal/database"
	auditRepo "github.com/mrlokans/manuscripts/internal/database/audit"
	"github.com/mrlokans/manuscripts/internal/database/publications"
	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
	"github.com/mrlokans/manuscripts/internal/parsers"
	"github.com/mrlokans/manuscripts/internal/services"
)

// ErrImportFailed is returned when the import ran but did not succeed. The
// details have already been printed.
var ErrImportFailed = errors.New("import failed")

type ImportCommand struct {
	File          string
	Format        string
	Slug          string
	PublicationID uint
	Publish       bool
	AccessLevel   string
	Replace       bool
	DryRun        bool
	JSON          bool
	DatabasePath  string
	AuditDir      string

	Out io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{Out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	cfg := config.NewConfig()
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	var publicationID uint64
	fs.StringVar(&cmd.File, "file", "", "Manuscript to import: .md, .txt, .zip or .epub (required)")
	fs.StringVar(&cmd.Format, "format", "", "Override format detection: md, txt, zip, epub")
	fs.StringVar(&cmd.Slug, "slug", "", "Target publication slug (derived from the title when empty)")
	fs.Uint64Var(&publicationID, "publication-id", 0, "Import into this existing publication")
	fs.BoolVar(&cmd.Publish, "publish", cfg.Import.DefaultPublish, "Publish newly created chapters")
	fs.StringVar(&cmd.AccessLevel, "access", cfg.Import.DefaultAccessLevel, "Access level for new chapters: free, member, supporter, patron")
	fs.BoolVar(&cmd.Replace, "replace", cfg.Import.DefaultReplace, "Overwrite the text of chapters that already exist")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would change without writing")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the result as JSON")
	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the database file")
	fs.StringVar(&cmd.AuditDir, "audit-dir", cfg.Audit.Dir, "Directory for import result snapshots (empty disables)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a manuscript into a publication, one chapter per detected chapter.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file novel.md\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file chapters.zip -slug my-novel -replace\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file novel.txt -publish -access member -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.PublicationID = uint(publicationID)

	if cmd.File == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}
	return nil
}

func (cmd *ImportCommand) command() (services.ImportCommand, error) {
	format, err := parsers.ParseFormat(cmd.Format)
	if err != nil {
		return services.ImportCommand{}, err
	}
	level, err := entities.ParseAccessLevel(cmd.AccessLevel)
	if err != nil {
		return services.ImportCommand{}, err
	}
	return services.ImportCommand{
		Format:        format,
		Slug:          cmd.Slug,
		PublicationID: cmd.PublicationID,
		Publish:       cmd.Publish,
		AccessLevel:   level,
		Replace:       cmd.Replace,
		DryRun:        cmd.DryRun,
		Source:        "cli",
	}, nil
}

func (cmd *ImportCommand) Run() error {
	importCmd, err := cmd.command()
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	defer auditService.Flush()

	service := services.NewImportService(publications.NewRepository(db.DB), nil)
	service.SetAuditor(auditService)
	service.SetArchiver(audit.NewAuditor(cmd.AuditDir))

	result, err := service.ImportFile(context.Background(), cmd.File, importCmd)
	if err != nil {
		return err
	}

	if cmd.JSON {
		enc := json.NewEncoder(cmd.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		PrintImportResult(cmd.Out, result)
	}

	if !result.Success {
		return ErrImportFailed
	}
	return nil
}

// PrintImportResult writes a human-readable report. Warnings and errors get
// their own section so they are not mistaken for chapter changes.
func PrintImportResult(w io.Writer, result importers.ImportResult) {
	heading := "=== Import Results ==="
	if result.DryRun {
		heading = "=== Import Plan (dry run) ==="
	}
	fmt.Fprintln(w, heading)

	if result.Success {
		kind := "existing"
		if result.FreshImport {
			kind = "new"
		}
		fmt.Fprintf(w, "Publication: %s (%s, ref %s)\n", result.PublicationSlug, kind, result.PublicationRef)
	} else {
		fmt.Fprintf(w, "Status: %s\n", result.Status)
	}

	printList(w, "Created", "+", result.ChaptersCreated)
	printList(w, "Updated", "~", result.ChaptersUpdated)
	printList(w, "Skipped", "=", result.ChaptersSkipped)

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\n=== Warnings/Errors (%d) ===\n", len(result.Errors))
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}

	fmt.Fprintln(w)
	if result.Success {
		fmt.Fprintf(w, "Done: %d created, %d updated, %d skipped\n",
			len(result.ChaptersCreated), len(result.ChaptersUpdated), len(result.ChaptersSkipped))
	} else {
		fmt.Fprintln(w, "Import failed; no chapters were written.")
	}
}

func printList(w io.Writer, label, marker string, items []string) {
	fmt.Fprintf(w, "\n%s (%d):\n", label, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", marker, item)
	}
}
