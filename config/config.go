// Package config provides process settings and the dashboard catalog.
//
// Settings come from environment variables. The catalog (model pricing,
// provider budgets, known skills, channel list) is read from dashboard.yaml,
// falls back to built-in defaults, and is reloaded on SIGHUP.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Session source selectors for SESSIONS_SOURCE.
const (
	SourceFiles    = "files"
	SourceCLI      = "cli"
	SourceSnapshot = "snapshot"
)

// DBSettings holds optional PostgreSQL parameters for the ideas store.
type DBSettings struct {
	Host     string `envconfig:"DB_HOST"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"clawboard"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"clawboard"`
}

// Enabled reports whether a database host was configured.
func (d DBSettings) Enabled() bool {
	return d.Host != ""
}

// Settings is the process configuration, injected at start-up.
type Settings struct {
	Port           string        `envconfig:"PORT" default:"3000"`
	Home           string        `envconfig:"HOME"`
	OpenClawDir    string        `envconfig:"OPENCLAW_DIR"`
	DashboardData  string        `envconfig:"DASHBOARD_DATA"`
	CommandsLog    string        `envconfig:"COMMANDS_LOG"`
	IdeasFile      string        `envconfig:"IDEAS_FILE"`
	OpenClawBin    string        `envconfig:"OPENCLAW_BIN" default:"openclaw"`
	TailscaleBin   string        `envconfig:"TAILSCALE_BIN" default:"tailscale"`
	CommandTimeout time.Duration `envconfig:"COMMAND_TIMEOUT" default:"15s"`
	GatewayURL     string        `envconfig:"GATEWAY_URL" default:"http://127.0.0.1:18789"`
	GatewayToken   string        `envconfig:"GATEWAY_TOKEN"`
	SessionsSource string        `envconfig:"SESSIONS_SOURCE" default:"files"`
	ActiveWindow   time.Duration `envconfig:"ACTIVE_WINDOW" default:"5m"`
	CatalogPath    string        `envconfig:"DASHBOARD_CONFIG"`
	FrontendDir    string        `envconfig:"FRONTEND_DIR" default:"./web"`

	DB DBSettings `ignored:"true"`
}

// LoadSettings reads Settings from the environment and resolves the paths
// that default relative to HOME.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := envconfig.Process("", &s.DB); err != nil {
		return nil, fmt.Errorf("reading database settings: %w", err)
	}
	if err := s.resolve(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) resolve() error {
	if s.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		s.Home = home
	}
	if s.OpenClawDir == "" {
		s.OpenClawDir = filepath.Join(s.Home, ".openclaw")
	}
	if s.DashboardData == "" {
		s.DashboardData = filepath.Join(s.Home, "clawd", "workspace", "dashboard", "dashboard-data.json")
	}
	if s.CommandsLog == "" {
		s.CommandsLog = filepath.Join(s.OpenClawDir, "logs", "commands.log")
	}
	if s.IdeasFile == "" {
		s.IdeasFile = filepath.Join(s.Home, "clawd", "workspace", "dashboard-ideas.json")
	}
	switch s.SessionsSource {
	case SourceFiles, SourceCLI, SourceSnapshot:
	default:
		return fmt.Errorf("invalid SESSIONS_SOURCE %q: must be %q, %q or %q", s.SessionsSource, SourceFiles, SourceCLI, SourceSnapshot)
	}
	if s.CommandTimeout <= 0 {
		return fmt.Errorf("invalid COMMAND_TIMEOUT %s: must be positive", s.CommandTimeout)
	}
	return nil
}

// AgentsDir is the directory holding one sub-directory per agent.
func (s *Settings) AgentsDir() string {
	return filepath.Join(s.OpenClawDir, "agents")
}

// --- Catalog ---

// ModelPrice is a per-million-token price pair in USD.
type ModelPrice struct {
	Input  float64 `yaml:"input" json:"input"`
	Output float64 `yaml:"output" json:"output"`
}

// Channel is one entry of the static channel list.
type Channel struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Type   string `yaml:"type" json:"type"`
	Status string `yaml:"status" json:"status"`
}

// CatalogFile is the top-level structure of dashboard.yaml.
type CatalogFile struct {
	Pricing      map[string]ModelPrice `yaml:"pricing"`
	DefaultPrice *ModelPrice           `yaml:"default_price"`
	Budgets      map[string]float64    `yaml:"budgets"`
	KnownSkills  []string              `yaml:"known_skills"`
	Channels     []Channel             `yaml:"channels"`
}

type registry struct {
	mu           sync.RWMutex
	path         string
	pricing      map[string]ModelPrice
	defaultPrice ModelPrice
	budgets      map[string]float64
	knownSkills  []string
	channels     []Channel
}

var global = newRegistry()

func newRegistry() *registry {
	r := &registry{}
	r.apply(CatalogFile{})
	return r
}

// catalogPath returns the first existing candidate for dashboard.yaml.
func catalogPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{
		"./dashboard.yaml",
		"/app/dashboard.yaml",
		"../dashboard.yaml",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return "./dashboard.yaml"
}

// apply replaces the catalog, filling every missing section with defaults.
func (r *registry) apply(cf CatalogFile) {
	pricing := cf.Pricing
	if len(pricing) == 0 {
		pricing = defaultPricing()
	}
	def := defaultModelPrice
	if cf.DefaultPrice != nil {
		def = *cf.DefaultPrice
	}
	budgets := cf.Budgets
	if len(budgets) == 0 {
		budgets = defaultBudgets()
	}
	skills := cf.KnownSkills
	if len(skills) == 0 {
		skills = append([]string(nil), defaultKnownSkills...)
	}
	channels := cf.Channels
	if len(channels) == 0 {
		channels = append([]Channel(nil), defaultChannels...)
	}

	r.mu.Lock()
	r.pricing = pricing
	r.defaultPrice = def
	r.budgets = budgets
	r.knownSkills = skills
	r.channels = channels
	r.mu.Unlock()
}

func (r *registry) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("[config] %s not found, using built-in catalog", path)
			r.apply(CatalogFile{})
			r.mu.Lock()
			r.path = path
			r.mu.Unlock()
			return nil
		}
		return fmt.Errorf("reading catalog: %w", err)
	}

	var cf CatalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	r.apply(cf)

	r.mu.Lock()
	r.path = path
	r.mu.Unlock()

	abs, _ := filepath.Abs(path)
	log.Printf("[config] Loaded catalog from %s (%d priced models, %d budgets, %d skills)",
		abs, len(cf.Pricing), len(cf.Budgets), len(cf.KnownSkills))
	return nil
}

// watchSIGHUP listens for SIGHUP and reloads the catalog.
func (r *registry) watchSIGHUP() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	for range ch {
		log.Println("[config] SIGHUP received, reloading catalog...")
		r.mu.RLock()
		path := r.path
		r.mu.RUnlock()
		if err := r.load(path); err != nil {
			log.Printf("[config] Reload failed: %v", err)
		}
	}
}

// --- Public API ---

// LoadCatalog reads dashboard.yaml from path (or the first default candidate
// when path is empty). A missing file keeps the built-in defaults.
func LoadCatalog(path string) error {
	return global.load(catalogPath(path))
}

// WatchSIGHUP reloads the catalog whenever the process receives SIGHUP.
// It blocks; run it in a goroutine.
func WatchSIGHUP() {
	global.watchSIGHUP()
}

// ResetCatalog restores the built-in defaults.
func ResetCatalog() {
	global.apply(CatalogFile{})
}

// GetPricing returns a copy of the per-model price table.
func GetPricing() map[string]ModelPrice {
	global.mu.RLock()
	defer global.mu.RUnlock()
	cp := make(map[string]ModelPrice, len(global.pricing))
	for k, v := range global.pricing {
		cp[k] = v
	}
	return cp
}

// GetDefaultPrice returns the price used for unknown models.
func GetDefaultPrice() ModelPrice {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.defaultPrice
}

// GetBudgets returns a copy of the monthly budget per provider (USD).
func GetBudgets() map[string]float64 {
	global.mu.RLock()
	defer global.mu.RUnlock()
	cp := make(map[string]float64, len(global.budgets))
	for k, v := range global.budgets {
		cp[k] = v
	}
	return cp
}

// GetKnownSkills returns the skill names matched in transcripts.
func GetKnownSkills() []string {
	global.mu.RLock()
	defer global.mu.RUnlock()
	cp := make([]string, len(global.knownSkills))
	copy(cp, global.knownSkills)
	return cp
}

// GetChannels returns the static channel list.
func GetChannels() []Channel {
	global.mu.RLock()
	defer global.mu.RUnlock()
	cp := make([]Channel, len(global.channels))
	copy(cp, global.channels)
	return cp
}
