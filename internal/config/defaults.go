package config

// DefaultFile is the config path used when --config is not given.
const DefaultFile = ".catalogue.yml"

// DefaultRoutes mirrors the two sections the site ships with.
var DefaultRoutes = map[string]string{
	"/article":  "/json/article.json",
	"/histoire": "/json/histoire.json",
}

// DefaultTagSources are the files scanned for tag pages.
var DefaultTagSources = []string{
	"/json/article.json",
	"/json/histoire.json",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	routes := make(map[string]string, len(DefaultRoutes))
	for k, v := range DefaultRoutes {
		routes[k] = v
	}
	return &Config{
		SiteTitle:         "Catalogue",
		DataDir:           "site",
		Routes:            routes,
		TagSources:        append([]string(nil), DefaultTagSources...),
		PageSize:          6,
		AutoFormatDisplay: true,
		Timezone:          "UTC",
		Locale:            "zh-CN",
		Labels: Labels{
			Words:     "字",
			Published: "发布",
			Modified:  "修改",
			NoContent: "未找到包含此标签的内容。",
		},
		OutputDir: "public",
		Server: ServerConfig{
			Port:    8080,
			Metrics: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
