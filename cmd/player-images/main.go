package main

import (
	"fmt"

	"playerdata/internal/configutil"
	"playerdata/internal/playerimages"
	"playerdata/internal/scrapers/wikipedia"
	"playerdata/internal/serviceutil"

	"github.com/spf13/cobra"
)

type fileConfig struct {
	Images playerimages.Config `json:"images"`
}

// loadConfig layers the defaults, the config file and every flag set on the command line,
// in that order.
func loadConfig(cmd *cobra.Command) (playerimages.Config, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	loaded, err := configutil.Load(configPath, fileConfig{Images: playerimages.DefaultConfig()})
	if err != nil {
		return playerimages.Config{}, fmt.Errorf("read config: %w", err)
	}
	config := loaded.Images

	if flags.Changed("input") {
		config.InputPath, _ = flags.GetString("input")
	}
	if flags.Changed("column") {
		config.NameColumn, _ = flags.GetString("column")
	}
	if flags.Changed("output") {
		config.OutputPath, _ = flags.GetString("output")
	}
	if flags.Changed("images-dir") {
		config.ImagesDir, _ = flags.GetString("images-dir")
	}
	if flags.Changed("min-bytes") {
		config.MinImageBytes, _ = flags.GetInt64("min-bytes")
	}
	return config, nil
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	debug, _ := cmd.Flags().GetBool("debug")
	tel, shutdown := serviceutil.SetupTelemetry(ctx, "player-images", debug)
	defer shutdown()

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client := wikipedia.NewClient(config.WikipediaOptions(), tel)
	summary, err := playerimages.Run(ctx, config, client, tel, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("resolve player images: %w", err)
	}
	summary.Render(cmd.OutOrStdout())
	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player-images",
		Short: "player-images downloads a profile image for every player in a roster.",
		Long: "player-images reads player_data.csv, downloads each player's Wikipedia page image into images/ " +
			"and writes player_images.json. Players without an image are mapped to a generated avatar url.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.String("config", "playerdata.json5", "Optional config file, its images section is used.")
	flags.Bool("debug", false, "Log requests and other debug information.")
	flags.String("input", "", "CSV of players to process.")
	flags.String("column", "", "Column holding the player names.")
	flags.String("output", "", "Where to write the name to image mapping.")
	flags.String("images-dir", "", "Directory downloaded images are stored in.")
	flags.Int64("min-bytes", 0, "Size a stored image must exceed to be reused.")
	return cmd
}

func main() {
	err := newRootCmd().ExecuteContext(serviceutil.SignalContext())
	if err != nil {
		serviceutil.Fatal("player-images failed", err)
	}
}
