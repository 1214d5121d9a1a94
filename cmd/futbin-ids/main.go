package main

import (
	"fmt"

	"playerdata/internal/configutil"
	"playerdata/internal/playerids"
	"playerdata/internal/scrapers/futbin"
	"playerdata/internal/serviceutil"

	"github.com/spf13/cobra"
)

type fileConfig struct {
	FutbinIDs playerids.Config `json:"futbin_ids"`
}

// loadConfig layers the defaults, the config file and every flag set on the command line,
// in that order.
func loadConfig(cmd *cobra.Command) (playerids.Config, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	loaded, err := configutil.Load(configPath, fileConfig{FutbinIDs: playerids.DefaultConfig()})
	if err != nil {
		return playerids.Config{}, fmt.Errorf("read config: %w", err)
	}
	config := loaded.FutbinIDs

	if flags.Changed("input") {
		config.InputPath, _ = flags.GetString("input")
	}
	if flags.Changed("column") {
		config.NameColumn, _ = flags.GetString("column")
	}
	if flags.Changed("output") {
		config.OutputPath, _ = flags.GetString("output")
	}
	if flags.Changed("year") {
		config.Futbin.Year, _ = flags.GetString("year")
	}
	if flags.Changed("delay") {
		delay, _ := flags.GetDuration("delay")
		config.Delay = configutil.Duration(delay)
	}
	if flags.Changed("no-cloudflare-bypass") {
		noBypass, _ := flags.GetBool("no-cloudflare-bypass")
		config.Futbin.CloudflareBypass = !noBypass
	}
	return config, nil
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	debug, _ := cmd.Flags().GetBool("debug")
	tel, shutdown := serviceutil.SetupTelemetry(ctx, "futbin-ids", debug)
	defer shutdown()

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client := futbin.NewClient(config.FutbinOptions(), tel)
	summary, err := playerids.Run(ctx, config, client, tel, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("resolve FUTBIN ids: %w", err)
	}
	summary.Render(cmd.OutOrStdout())
	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "futbin-ids",
		Short: "futbin-ids looks up the FUTBIN id of every player in a roster.",
		Long: "futbin-ids reads player_data.csv, searches FUTBIN for each player one request at a time " +
			"and writes the ids that were found to futbin_ids.json.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.String("config", "playerdata.json5", "Optional config file, its futbin_ids section is used.")
	flags.Bool("debug", false, "Log requests and other debug information.")
	flags.String("input", "", "CSV of players to process.")
	flags.String("column", "", "Column holding the player names.")
	flags.String("output", "", "Where to write the name to FUTBIN id mapping.")
	flags.String("year", "", "Game edition to search, ex. 24.")
	flags.Duration("delay", 0, "Pause after each search request before the next one starts.")
	flags.Bool("no-cloudflare-bypass", false, "Use a plain transport for FUTBIN requests.")
	return cmd
}

func main() {
	err := newRootCmd().ExecuteContext(serviceutil.SignalContext())
	if err != nil {
		serviceutil.Fatal("futbin-ids failed", err)
	}
}
