package playerids

import (
	"time"

	"playerdata/internal/configutil"
	"playerdata/internal/roster"
	"playerdata/internal/scrapers/futbin"
)

type FutbinConfig struct {
	BaseUrl string `json:"base_url"`
	// Year is the game edition searched, "24" for FC 24.
	Year              string  `json:"year"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	MinNameSimilarity float64 `json:"min_name_similarity"`
}

type Config struct {
	InputPath  string `json:"input"`
	NameColumn string `json:"name_column"`
	OutputPath string `json:"output"`
	// Delay separates two consecutive search requests.
	Delay     configutil.Duration `json:"delay"`
	UserAgent string              `json:"user_agent"`
	Timeout   configutil.Duration `json:"timeout"`
	Futbin    FutbinConfig        `json:"futbin"`
}

func DefaultConfig() Config {
	return Config{
		InputPath:  "player_data.csv",
		NameColumn: roster.DefaultColumn,
		OutputPath: "futbin_ids.json",
		Delay:      configutil.Duration(1500 * time.Millisecond),
		UserAgent:  "Mozilla/5.0",
		Timeout:    configutil.Duration(10 * time.Second),
		Futbin: FutbinConfig{
			BaseUrl:           futbin.DefaultBaseUrl,
			Year:              futbin.DefaultYear,
			CloudflareBypass:  true,
			MinNameSimilarity: 0.7,
		},
	}
}

func (c Config) FutbinOptions() futbin.Options {
	return futbin.Options{
		BaseUrl:           c.Futbin.BaseUrl,
		Year:              c.Futbin.Year,
		UserAgent:         c.UserAgent,
		Timeout:           c.Timeout.Std(),
		Delay:             c.Delay.Std(),
		CloudflareBypass:  c.Futbin.CloudflareBypass,
		MinNameSimilarity: c.Futbin.MinNameSimilarity,
	}
}
