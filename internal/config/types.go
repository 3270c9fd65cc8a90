package config

// Config is the top-level catalogue configuration, corresponding to .catalogue.yml.
type Config struct {
	SiteTitle string `yaml:"site_title" koanf:"site_title"`
	DataDir   string `yaml:"data_dir" koanf:"data_dir" validate:"required_without=BaseURL"`
	BaseURL   string `yaml:"base_url,omitempty" koanf:"base_url" validate:"omitempty,url"`

	// Routes maps a URL path prefix to the JSON source listed under it.
	Routes map[string]string `yaml:"routes" koanf:"routes" validate:"dive,keys,startswith=/,endkeys,required"`
	// Pages pins an exact path to a source, taking precedence over Routes.
	Pages map[string]string `yaml:"pages,omitempty" koanf:"pages" validate:"dive,keys,startswith=/,endkeys,required"`
	// TagSources are scanned for /tag/<slug> pages. Glob patterns are allowed.
	TagSources []string `yaml:"tag_sources" koanf:"tag_sources" validate:"dive,required"`

	PageSize             int    `yaml:"page_size" koanf:"page_size" validate:"min=1"`
	AutoFormatDisplay    bool   `yaml:"auto_format_display" koanf:"auto_format_display"`
	Timezone             string `yaml:"timezone" koanf:"timezone"`
	Locale               string `yaml:"locale" koanf:"locale"`
	MarkdownDescriptions bool   `yaml:"markdown_descriptions" koanf:"markdown_descriptions"`
	Labels               Labels `yaml:"labels" koanf:"labels"`

	OutputDir string       `yaml:"output_dir" koanf:"output_dir" validate:"required"`
	Server    ServerConfig `yaml:"server" koanf:"server"`
	Log       LogConfig    `yaml:"log" koanf:"log"`
}

// Labels are the user-facing strings of the tile info line and empty pages.
type Labels struct {
	Words     string `yaml:"words" koanf:"words"`
	Published string `yaml:"published" koanf:"published"`
	Modified  string `yaml:"modified" koanf:"modified"`
	NoContent string `yaml:"no_content" koanf:"no_content"`
}

// ServerConfig holds HTTP settings for `catalogue serve`.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port" validate:"min=0,max=65535"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Metrics         bool `yaml:"metrics" koanf:"metrics"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Pretty bool   `yaml:"pretty" koanf:"pretty"`
}
