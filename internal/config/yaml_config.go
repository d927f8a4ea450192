package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Theme names accepted by the settings form.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// YAMLConfig represents the structure of the config.yaml file.
// Hierarchical settings that are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Themes         map[string]ThemeConfig `yaml:"themes"`
	IntentAliases  map[string]string      `yaml:"intent_aliases"`  // lowercase label -> canonical intent
	CountryAliases map[string]string      `yaml:"country_aliases"` // lowercase label -> canonical country
	Operators      []string               `yaml:"operators"`       // e-mails allowed to run operator actions
}

// ThemeConfig holds the CSS variables and chart colors of one theme.
type ThemeConfig struct {
	Background string   `yaml:"background"`
	Panel      string   `yaml:"panel"`
	Text       string   `yaml:"text"`
	Muted      string   `yaml:"muted"`
	Border     string   `yaml:"border"`
	Primary    string   `yaml:"primary"`
	Success    string   `yaml:"success"`
	Info       string   `yaml:"info"`
	Warning    string   `yaml:"warning"`
	Danger     string   `yaml:"danger"`
	Palette    []string `yaml:"palette"` // pie slices, in order
}

var defaultThemes = map[string]ThemeConfig{
	ThemeLight: {
		Background: "#F8F9FA",
		Panel:      "#FFFFFF",
		Text:       "#212529",
		Muted:      "#6C757D",
		Border:     "#DEE2E6",
		Primary:    "#0D6EFD",
		Success:    "#198754",
		Info:       "#0DCAF0",
		Warning:    "#FFC107",
		Danger:     "#DC3545",
		Palette:    []string{"#0D6EFD", "#0DCAF0", "#6610F2", "#FD7E14", "#20C997"},
	},
	ThemeDark: {
		Background: "#121417",
		Panel:      "#1E2126",
		Text:       "#E9ECEF",
		Muted:      "#ADB5BD",
		Border:     "#343A40",
		Primary:    "#3D8BFD",
		Success:    "#479F76",
		Info:       "#3DD5F3",
		Warning:    "#FFCD39",
		Danger:     "#E35D6A",
		Palette:    []string{"#3D8BFD", "#3DD5F3", "#8540F5", "#FD9843", "#4DD4AC"},
	},
}

var defaultIntentAliases = map[string]string{
	"informacional": "Informacional",
	"informativa":   "Informacional",
	"informational": "Informacional",
	"navegacional":  "Navegacional",
	"navigational":  "Navegacional",
	"comercial":     "Comercial",
	"commercial":    "Comercial",
	"transacional":  "Transacional",
	"transactional": "Transacional",
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	return ParseYAMLConfig(data)
}

// ParseYAMLConfig decodes YAML settings and normalizes alias keys.
func ParseYAMLConfig(data []byte) (*YAMLConfig, error) {
	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.IntentAliases = lowerKeys(cfg.IntentAliases)
	cfg.CountryAliases = lowerKeys(cfg.CountryAliases)
	for i, op := range cfg.Operators {
		cfg.Operators[i] = strings.ToLower(strings.TrimSpace(op))
	}

	return &cfg, nil
}

// Theme returns the named theme, filling unset fields from the built-in palette.
// Unknown names fall back to the light theme.
func (c *YAMLConfig) Theme(name string) ThemeConfig {
	base, ok := defaultThemes[name]
	if !ok {
		base = defaultThemes[ThemeLight]
	}
	if c == nil {
		return base
	}
	custom, ok := c.Themes[name]
	if !ok {
		return base
	}

	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	custom.Background = pick(custom.Background, base.Background)
	custom.Panel = pick(custom.Panel, base.Panel)
	custom.Text = pick(custom.Text, base.Text)
	custom.Muted = pick(custom.Muted, base.Muted)
	custom.Border = pick(custom.Border, base.Border)
	custom.Primary = pick(custom.Primary, base.Primary)
	custom.Success = pick(custom.Success, base.Success)
	custom.Info = pick(custom.Info, base.Info)
	custom.Warning = pick(custom.Warning, base.Warning)
	custom.Danger = pick(custom.Danger, base.Danger)
	if len(custom.Palette) == 0 {
		custom.Palette = base.Palette
	}
	return custom
}

// IntentAlias maps a label found in a report to its canonical intent name.
func (c *YAMLConfig) IntentAlias(label string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if c != nil {
		if v, ok := c.IntentAliases[key]; ok {
			return v, true
		}
	}
	v, ok := defaultIntentAliases[key]
	return v, ok
}

// CountryAlias maps a country label to its canonical name, or returns it unchanged.
func (c *YAMLConfig) CountryAlias(label string) string {
	label = strings.TrimSpace(label)
	if c == nil {
		return label
	}
	if v, ok := c.CountryAliases[strings.ToLower(label)]; ok {
		return v
	}
	return label
}

// IsOperator reports whether the e-mail may run operator actions.
// An empty allowlist admits any authenticated user.
func (c *YAMLConfig) IsOperator(email string) bool {
	if c == nil || len(c.Operators) == 0 {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, op := range c.Operators {
		if op == email {
			return true
		}
	}
	return false
}

func lowerKeys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
