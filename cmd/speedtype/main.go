// Package main provides the CLI entrypoint for speedtype.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/generator"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/store"
	"github.com/verte-zerg/speedtype/internal/submit"
	"github.com/verte-zerg/speedtype/internal/tui"
	"github.com/verte-zerg/speedtype/internal/wordlist"
)

const (
	defaultLang      = "python"
	defaultWords     = 25
	defaultDuration  = "2m"
	defaultCaps      = 0.0
	defaultPunct     = 0.0
	defaultServerURL = "http://localhost:3000/api"
)

const defaultPunctSet = ".,!?;:\"'{}()[]-=/<>`"

var (
	practiceLang     string
	practiceWords    int
	practiceDuration string
	practiceCaps     float64
	practicePunct    float64
	practicePunctSet string

	accountUserID string
	accountEmail  string
	accountToken  string
	serverURL     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "speedtype",
		Short:         "Typing speed trainer with a shared leaderboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceLang, "lang", defaultLang, "content language")
	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "words per text")
	rootCmd.Flags().StringVar(&practiceDuration, "duration", defaultDuration, "test duration (e.g. 30s, 2m)")
	rootCmd.Flags().Float64Var(&practiceCaps, "caps", defaultCaps, "probability of capitalized first letter (0-1)")
	rootCmd.Flags().Float64Var(&practicePunct, "punct", defaultPunct, "punctuation probability per word (0-1)")
	rootCmd.Flags().StringVar(&practicePunctSet, "punct-set", defaultPunctSet, "punctuation set")
	rootCmd.Flags().StringVar(&accountUserID, "user-id", "", "user id results are submitted for")
	rootCmd.Flags().StringVar(&accountEmail, "email", "", "email stored with submitted results")
	rootCmd.Flags().StringVar(&accountToken, "token", "", "bearer token for the score server")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL, "score server base URL")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyPracticeConfig(cmd, fileCfg)

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if wordlist.IsCode(cfg.Lang) && (cfg.CapsPct > 0 || cfg.PunctPct > 0) {
		logErrf("caps and punctuation are ignored for %s content\n", cfg.Lang)
		cfg = verbatimContent(cfg)
	}
	identity := model.Identity{
		UserID: strings.TrimSpace(accountUserID),
		Email:  strings.TrimSpace(accountEmail),
		Token:  accountToken,
	}
	if err := validateIdentity(identity); err != nil {
		return err
	}

	words, source, err := wordlist.Load(config.DefaultWordListDir(), cfg.Lang)
	if err != nil {
		return wordListLoadError(cfg.Lang, source, err)
	}
	if len(words) == 0 {
		return fmt.Errorf("word list %s is empty", source)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	gen := generator.New(words, generator.Options{
		Words:    cfg.Words,
		CapsPct:  cfg.CapsPct,
		PunctPct: cfg.PunctPct,
		PunctSet: []rune(cfg.PunctSet),
	})
	opts := tui.Options{
		Config:   cfg,
		Identity: identity,
		Source:   gen,
		Store:    st,
	}
	if identity.UserID != "" {
		opts.Submitter = submit.New(serverURL)
	}
	program := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// applyPracticeConfig copies config file values into flags the user did not set.
func applyPracticeConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "lang", &practiceLang, fileCfg.Practice.Lang)
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	applyStringConfig(cmd, "duration", &practiceDuration, fileCfg.Practice.Duration)
	applyFloatConfig(cmd, "caps", &practiceCaps, fileCfg.Practice.CapsPct)
	applyFloatConfig(cmd, "punct", &practicePunct, fileCfg.Practice.PunctPct)
	applyStringConfig(cmd, "punct-set", &practicePunctSet, fileCfg.Practice.PunctSet)
	applyStringConfig(cmd, "user-id", &accountUserID, fileCfg.Account.UserID)
	applyStringConfig(cmd, "email", &accountEmail, fileCfg.Account.Email)
	applyStringConfig(cmd, "token", &accountToken, fileCfg.Account.Token)
	applyServerConfig(cmd, fileCfg)
}

func applyServerConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "server", &serverURL, fileCfg.Server.URL)
}

func buildConfig() (model.Config, error) {
	duration, err := time.ParseDuration(strings.TrimSpace(practiceDuration))
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --duration value: %w", err)
	}
	return model.Config{
		Lang:     strings.ToLower(strings.TrimSpace(practiceLang)),
		Words:    practiceWords,
		Duration: duration,
		CapsPct:  practiceCaps,
		PunctPct: practicePunct,
		PunctSet: practicePunctSet,
	}, nil
}

// verbatimContent disables the caps and punctuation transforms.
func verbatimContent(cfg model.Config) model.Config {
	cfg.CapsPct = 0
	cfg.PunctPct = 0
	return cfg
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List built-in and downloaded content languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	langs, err := resolveLangs(config.DefaultWordListDir())
	if err != nil {
		return err
	}
	for _, lang := range langs {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), lang); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// resolveLangs merges the built-in languages with the word lists found in dir.
// A missing directory only yields the built-ins.
func resolveLangs(dir string) ([]string, error) {
	seen := map[string]struct{}{}
	for _, lang := range wordlist.BuiltinLanguages() {
		seen[lang] = struct{}{}
	}
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read wordlist directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		seen[strings.TrimSuffix(name, ".txt")] = struct{}{}
	}
	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# speedtype configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# lang = %q          # Content language (python, javascript, c or a word list name)
# words = %d              # Words per text
# duration = %q          # Test duration
# caps = %.2f             # Probability of capitalized first letter (0-1)
# punct = %.2f            # Punctuation probability per word (0-1)
# punct-set = %q          # Punctuation set

[account]
# user-id = ""            # Results are only submitted when set
# email = ""
# token = ""              # Bearer token when the server requires auth

[server]
# url = %q
`,
		defaultLang,
		defaultWords,
		defaultDuration,
		defaultCaps,
		defaultPunct,
		defaultPunctSet,
		defaultServerURL,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Lang == "" {
		return fmt.Errorf("--lang must not be empty")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("--duration must be > 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if cfg.PunctPct > 0 && cfg.PunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	return nil
}

func validateIdentity(id model.Identity) error {
	if id.UserID != "" && id.Email == "" {
		return fmt.Errorf("--email is required when --user-id is set")
	}
	return nil
}

func wordListLoadError(lang, source string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load word list: %v", err),
		fmt.Sprintf("expected word list at: %s", source),
		fmt.Sprintf("language %q not found", lang),
		"Run: speedtype langs",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
