package playerimages

import (
	"time"

	"playerdata/internal/configutil"
	"playerdata/internal/roster"
	"playerdata/internal/scrapers/wikipedia"
)

const DefaultAvatarTemplate = "https://ui-avatars.com/api/?name={name}&background=232a34&color=3a86ff&size=64"

type WikipediaConfig struct {
	BaseUrl       string `json:"base_url"`
	ThumbnailSize int    `json:"thumbnail_size"`
	// RequestsPerSecond caps calls to Wikipedia, image downloads included.
	RequestsPerSecond float64 `json:"requests_per_second"`
}

type Config struct {
	InputPath  string `json:"input"`
	NameColumn string `json:"name_column"`
	OutputPath string `json:"output"`
	ImagesDir  string `json:"images_dir"`
	Extension  string `json:"extension"`
	// MinImageBytes is the size a cached image must exceed to be reused.
	MinImageBytes int64 `json:"min_image_bytes"`
	// AvatarTemplate is the fallback url, `{name}` is replaced with the
	// percent-encoded player name.
	AvatarTemplate string              `json:"avatar_template"`
	UserAgent      string              `json:"user_agent"`
	Timeout        configutil.Duration `json:"timeout"`
	Wikipedia      WikipediaConfig     `json:"wikipedia"`
}

func DefaultConfig() Config {
	return Config{
		InputPath:      "player_data.csv",
		NameColumn:     roster.DefaultColumn,
		OutputPath:     "player_images.json",
		ImagesDir:      "images",
		Extension:      ".jpg",
		MinImageBytes:  1024,
		AvatarTemplate: DefaultAvatarTemplate,
		UserAgent:      "Mozilla/5.0",
		Timeout:        configutil.Duration(10 * time.Second),
		Wikipedia: WikipediaConfig{
			BaseUrl:           wikipedia.DefaultBaseUrl,
			ThumbnailSize:     500,
			RequestsPerSecond: 5,
		},
	}
}

func (c Config) WikipediaOptions() wikipedia.Options {
	return wikipedia.Options{
		BaseUrl:           c.Wikipedia.BaseUrl,
		UserAgent:         c.UserAgent,
		Timeout:           c.Timeout.Std(),
		ThumbnailSize:     c.Wikipedia.ThumbnailSize,
		RequestsPerSecond: c.Wikipedia.RequestsPerSecond,
	}
}
