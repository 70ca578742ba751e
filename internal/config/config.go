package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	setRe   = regexp.MustCompile(`^set\s+(\w+)\s+(.+)$`)
	bindRe  = regexp.MustCompile(`^bind\s+(\S+)\s+(\S+)$`)
	colorRe = regexp.MustCompile(`^color\s+(\w+)\s+(.+)$`)
)

type Config struct {
	// File settings
	StoreFile string
	Editor    string
	LogFile   string
	LogLevel  string

	// Display settings
	TimeFormat  string
	DateFormat  string
	DayCount    int // 0 picks 1, 3 or 7 from the terminal width
	HourHeight  float64
	RowsPerHour int
	DayStart    int // hour scrolled to on startup

	// Pointer settings, in pixels of HourHeight
	EdgeBand       float64
	ScrollEdge     float64
	ScrollVelocity float64
	FrameRate      int

	// UI settings
	Colors      map[string]string
	KeyBindings map[string][]string // action -> keys

	// Behavior settings
	AutoRefresh   bool
	RefreshRate   time.Duration
	ConfirmDelete bool
}

func DefaultConfig() *Config {
	return &Config{
		StoreFile: filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "skuld", "events.yaml"),
		Editor:    getDefaultEditor(),
		LogFile:   filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), "skuld", "skuld.log"),
		LogLevel:  "info",

		TimeFormat:  "15:04",
		DateFormat:  "Mon Jan 2",
		DayCount:    0,
		HourHeight:  48,
		RowsPerHour: 4,
		DayStart:    8,

		EdgeBand:       8,
		ScrollEdge:     24,
		ScrollVelocity: 4,
		FrameRate:      60,

		Colors: map[string]string{
			"normal":   "252",
			"today":    "220",
			"selected": "205",
			"event":    "63",
			"allday":   "29",
			"ghost":    "241",
			"now":      "196",
			"header":   "39",
			"gutter":   "244",
			"status":   "241",
			"error":    "196",
		},

		KeyBindings: map[string][]string{
			"quit":          {"q", "ctrl+c"},
			"help":          {"?"},
			"today":         {"t"},
			"refresh":       {"r"},
			"new_event":     {"n"},
			"quick_add":     {"a"},
			"edit_file":     {"e"},
			"scroll_up":     {"up", "k"},
			"scroll_down":   {"down", "j"},
			"select_next":   {"tab"},
			"select_prev":   {"shift+tab"},
			"open_event":    {"enter", " "},
			"delete_event":  {"delete", "backspace"},
			"nudge_later":   {"+", "="},
			"nudge_earlier": {"-"},
			"prev_week":     {"left", "h"},
			"next_week":     {"right", "l"},
			"cancel":        {"esc"},
		},

		AutoRefresh:   true,
		RefreshRate:   30 * time.Second,
		ConfirmDelete: true,
	}
}

// LoadConfig reads the first config file found in the standard locations.
// A missing file is not an error.
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile reads path, or searches the standard locations when path is
// empty.
func LoadConfigFile(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		if err := config.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		return config, nil
	}

	configPaths := []string{
		os.Getenv("SKULD_CONFIG"),
		xdgConfigPath(),
		filepath.Join(os.Getenv("HOME"), ".config", "skuld", "skuldrc"),
		filepath.Join(os.Getenv("HOME"), ".skuldrc"),
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); err == nil {
			if err := config.loadFromFile(path); err != nil {
				return nil, fmt.Errorf("error loading config from %s: %w", path, err)
			}
			break
		}
	}

	return config, nil
}

func xdgConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "skuld", "skuldrc")
	}
	return ""
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}

func (c *Config) loadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if err := c.parseLine(line); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	return scanner.Err()
}

func (c *Config) parseLine(line string) error {
	// Skip comments and empty lines
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	// set variable value
	if matches := setRe.FindStringSubmatch(line); matches != nil {
		return c.setVariable(matches[1], matches[2])
	}

	// bind key action
	if matches := bindRe.FindStringSubmatch(line); matches != nil {
		return c.bind(matches[1], matches[2])
	}

	// color element color_spec
	if matches := colorRe.FindStringSubmatch(line); matches != nil {
		if _, ok := c.Colors[matches[1]]; !ok {
			return fmt.Errorf("unknown color element: %s", matches[1])
		}
		c.Colors[matches[1]] = strings.Trim(matches[2], `"'`)
		return nil
	}

	return fmt.Errorf("unknown config line: %s", line)
}

// bind attaches key to action and detaches it from every other action.
func (c *Config) bind(key, action string) error {
	if _, ok := c.KeyBindings[action]; !ok {
		return fmt.Errorf("unknown action: %s", action)
	}
	if key == "space" {
		key = " "
	}

	for name, keys := range c.KeyBindings {
		kept := keys[:0]
		for _, k := range keys {
			if k != key {
				kept = append(kept, k)
			}
		}
		c.KeyBindings[name] = kept
	}
	c.KeyBindings[action] = append(c.KeyBindings[action], key)
	return nil
}

func (c *Config) setVariable(name, value string) error {
	// Remove quotes if present
	value = strings.Trim(value, `"'`)

	switch name {
	case "store_file":
		c.StoreFile = expandHome(value)

	case "editor":
		c.Editor = value

	case "log_file":
		c.LogFile = expandHome(value)

	case "log_level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error", "none", "off":
			c.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid log_level: %s", value)
		}

	case "time_format":
		c.TimeFormat = value

	case "date_format":
		c.DateFormat = value

	case "day_count":
		switch value {
		case "auto":
			c.DayCount = 0
		case "1", "3", "7":
			c.DayCount, _ = strconv.Atoi(value)
		default:
			return fmt.Errorf("invalid day_count: %s", value)
		}

	case "hour_height":
		return setPositive(&c.HourHeight, name, value)

	case "rows_per_hour":
		rows, err := strconv.Atoi(value)
		if err != nil || rows < 1 || rows > 12 {
			return fmt.Errorf("invalid rows_per_hour: %s", value)
		}
		c.RowsPerHour = rows

	case "day_start":
		hour, err := strconv.Atoi(value)
		if err != nil || hour < 0 || hour > 23 {
			return fmt.Errorf("invalid day_start: %s", value)
		}
		c.DayStart = hour

	case "edge_band":
		return setPositive(&c.EdgeBand, name, value)

	case "scroll_edge":
		return setPositive(&c.ScrollEdge, name, value)

	case "scroll_velocity":
		return setPositive(&c.ScrollVelocity, name, value)

	case "frame_rate":
		fps, err := strconv.Atoi(value)
		if err != nil || fps < 1 || fps > 240 {
			return fmt.Errorf("invalid frame_rate: %s", value)
		}
		c.FrameRate = fps

	case "auto_refresh":
		c.AutoRefresh = parseBool(value)

	case "refresh_rate":
		rate, err := time.ParseDuration(value)
		if err != nil {
			// Try parsing as seconds
			if seconds, err2 := strconv.Atoi(value); err2 == nil {
				rate = time.Duration(seconds) * time.Second
			} else {
				return fmt.Errorf("invalid refresh_rate: %s", value)
			}
		}
		c.RefreshRate = rate

	case "confirm_delete":
		c.ConfirmDelete = parseBool(value)

	default:
		return fmt.Errorf("unknown config variable: %s", name)
	}

	return nil
}

func setPositive(dst *float64, name, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("invalid %s: %s", name, value)
	}
	*dst = v
	return nil
}

func parseBool(value string) bool {
	return strings.ToLower(value) == "true" || value == "1"
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// FrameInterval is the delay between auto-scroll frames.
func (c *Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}

func getDefaultEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	return "vi"
}
