package config

// Config represents the complete fms configuration.
// It can be loaded from .fms/config.yml with environment variable overrides.
type Config struct {
	Scan  ScanConfig  `yaml:"scan" mapstructure:"scan"`
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`
	Paths PathsConfig `yaml:"paths" mapstructure:"paths"`
	Sweep SweepConfig `yaml:"sweep" mapstructure:"sweep"`
	MCP   MCPConfig   `yaml:"mcp" mapstructure:"mcp"`
}

// ScanConfig tunes source span resolution.
type ScanConfig struct {
	AnchorWindow int `yaml:"anchor_window" mapstructure:"anchor_window"` // lines searched above the anchor for an opener
}

// CacheConfig bounds the source line cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"` // max files held in memory
}

// PathsConfig defines which files a sweep visits and which it skips.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for Ruby files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// SweepConfig configures the sweep worker pool.
type SweepConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	Watch bool `yaml:"watch" mapstructure:"watch"` // evict changed files from the cache
}

// MaxAnchorWindow is the largest accepted scan.anchor_window.
const MaxAnchorWindow = 5

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			AnchorWindow: 1,
		},
		Cache: CacheConfig{
			Capacity: 1024,
		},
		Paths: PathsConfig{
			Include: []string{
				"**/*.rb",
			},
			// Files that cannot be loaded standalone or define code through
			// generators the scanner does not follow.
			Ignore: []string{
				"vendor/**",
				".git/**",
				"tmp/**",
				"**/*tk.rb",
				"**/tk*.rb",
				"**/tkextlib/**",
				"**/*macpkg.rb",
				"**/*winpkg.rb",
				"**/debug.rb",
				"**/{ICONS,icons}.rb",
				"**/profile.rb",
				"**/*test_case.rb",
				"**/xmlparser/**",
				"**/xmlscanner/**",
				"**/cgi_runner.rb",
				"**/multi-irb.rb",
				"**/subirb.rb",
				"**/ws-for-case-2.rb",
				"**/test_utilities.rb",
				"**/psych/parser.rb",
				"**/rake/contrib/sys.rb",
				"**/rake/gempackagetask.rb",
				"**/rake/rdoctask.rb",
				"**/ruby182_test_unit_fix.rb",
				"**/rake/runtest.rb",
			},
		},
		Sweep: SweepConfig{
			Workers: 8,
		},
		MCP: MCPConfig{
			Watch: true,
		},
	}
}

// SourceExtensions extracts unique file extensions from the include patterns.
// Returns extensions with leading dot (e.g., []string{".rb", ".rake"}).
func (c *Config) SourceExtensions() []string {
	seen := make(map[string]bool)
	var extensions []string

	for _, pattern := range c.Paths.Include {
		if ext := extractExtension(pattern); ext != "" && !seen[ext] {
			seen[ext] = true
			extensions = append(extensions, ext)
		}
	}

	return extensions
}

// extractExtension extracts the file extension from a glob pattern.
// Returns empty string if pattern doesn't match a simple extension pattern.
// Examples: "**/*.rb" -> ".rb", "*.rake" -> ".rake", "Rakefile" -> ""
func extractExtension(pattern string) string {
	for i := len(pattern) - 1; i >= 1; i-- {
		if pattern[i] == '.' && pattern[i-1] == '*' {
			return pattern[i:]
		}
	}
	return ""
}
