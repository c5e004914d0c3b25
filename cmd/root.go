package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohzb/gromex/config"
	caldavclient "github.com/rohzb/gromex/internal/clients/caldav"
	"github.com/rohzb/gromex/internal/domain"
	"github.com/rohzb/gromex/internal/prompt"
	"github.com/rohzb/gromex/internal/service"
)

var (
	serverURL    string
	password     string
	saveSeparate bool
	saveCombined bool
	summaryOnly  bool
	maxRetries   int
)

// rootCmd is the single gromex command: connect, enumerate, export.
var rootCmd = &cobra.Command{
	Use:   "gromex <username> <destination>",
	Short: "Export calendar data from a Grommunio CalDAV account",
	Long: `gromex exports the calendars of a Grommunio account to local .ics files.

Each calendar is written as one combined file and, with --save-separate,
additionally as one file per event inside a directory named after the
calendar.`,
	Example: `  gromex user@example.com /path/to/export --save-separate
  gromex user@example.com /path/to/export --password yourpassword`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg := &config.Config{
		ServerURL:    serverURL,
		Username:     args[0],
		Password:     password,
		Destination:  args[1],
		SaveSeparate: saveSeparate,
		SaveCombined: saveCombined,
		MaxRetries:   maxRetries,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	creds := service.NewCredentials(cfg.Username, cfg.Password, prompt.Terminal{})
	sessions := service.NewSessionService(cfg.ServerURL, creds, cfg.MaxRetries)
	if err := sessions.Connect(ctx); err != nil {
		return err
	}

	calendars := service.NewCalendarService(sessions)

	if summaryOnly {
		return calendars.Summary(ctx, cmd.OutOrStdout())
	}

	refs, err := calendars.List(ctx)
	if err != nil {
		return err
	}

	exporter := service.NewExportService()
	request := domain.ExportRequest{
		BasePath:     cfg.Destination,
		SaveSeparate: cfg.SaveSeparate,
		SaveCombined: cfg.SaveCombined,
	}

	for _, ref := range refs {
		events, err := calendars.Events(ctx, ref)
		if err != nil {
			return err
		}
		if err := exporter.Export(ref, events, request); err != nil {
			return fmt.Errorf("export calendar %q: %w", ref.Name, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Export complete. Files saved to %s\n", cfg.Destination)
	return nil
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gromex version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&serverURL, "url", caldavclient.DefaultServerURL, "Grommunio server base URL")
	rootCmd.Flags().StringVar(&password, "password", "", "Account password (omit to be prompted)")
	rootCmd.Flags().BoolVar(&saveSeparate, "save-separate", false, "Save each event as a separate .ics file")
	rootCmd.Flags().BoolVar(&saveCombined, "save-combined", true, "Save one combined .ics file per calendar")
	rootCmd.Flags().BoolVar(&summaryOnly, "summary", false, "Print a per-calendar summary instead of exporting")
	rootCmd.Flags().IntVar(&maxRetries, "retries", service.DefaultMaxRetries, "Password attempts before giving up")
}
