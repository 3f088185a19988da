package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"bugbook/internal/bugstorage/filesystem"
	"bugbook/internal/config"
	"bugbook/internal/config/yamlstore"
	"bugbook/internal/logging"
	"bugbook/internal/pathguard"
	"bugbook/internal/tags"

	"github.com/spf13/cobra"
)

// AppProvider lazily initializes the App on first use.
type AppProvider struct {
	once sync.Once
	app  *App
	err  error

	// Config captured from flags before Execute()
	Dir        string // project directory, default cwd
	ConfigPath string // default config.DefaultPath()
	JSONOutput bool
	Out        io.Writer
	Err        io.Writer
	In         io.Reader
}

// Get returns the App, initializing it on first call.
func (p *AppProvider) Get() (*App, error) {
	p.once.Do(func() {
		if p.app == nil {
			p.app, p.err = p.init()
		}
	})
	return p.app, p.err
}

// NewTestProvider creates a provider pre-initialized with the given App.
// Used for testing commands with a test App.
func NewTestProvider(app *App) *AppProvider {
	return &AppProvider{
		app:        app,
		JSONOutput: app.JSON,
		Out:        app.Out,
		Err:        app.Err,
		In:         app.In,
	}
}

func (p *AppProvider) init() (*App, error) {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := p.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	in := p.In
	if in == nil {
		in = os.Stdin
	}

	guard := &pathguard.Guard{Dir: p.Dir}
	root, err := guard.Root()
	if err != nil {
		return nil, err
	}

	cfgPath := p.ConfigPath
	if cfgPath == "" {
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfgStore, err := yamlstore.New(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.ApplyDefaults(cfgStore)
	cfg := config.Load(cfgStore)

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Stderr: errOut,
	})
	if err != nil {
		return nil, err
	}

	store := filesystem.New(root,
		filesystem.WithLogger(logger),
		filesystem.WithUserConfig(cfg),
	)

	return &App{
		Storage:     store,
		Tags:        tags.New(root),
		Root:        root,
		Config:      cfg,
		ConfigStore: cfgStore,
		Logger:      logger,
		Out:         out,
		Err:         errOut,
		In:          in,
		JSON:        p.JSONOutput,
		Now:         time.Now,
		closer:      closer,
	}, nil
}

// close releases whatever the App opened, if it was ever built.
func (p *AppProvider) close() {
	if p.app != nil {
		p.app.Close()
	}
}

// Execute runs the CLI.
func Execute() error {
	provider := &AppProvider{
		Out: os.Stdout,
		Err: os.Stderr,
		In:  os.Stdin,
	}
	if v, err := strconv.ParseBool(os.Getenv(config.EnvJSON)); err == nil {
		provider.JSONOutput = v
	}
	defer provider.close()

	rootCmd := newRootCmd(provider)
	return rootCmd.Execute()
}

// newRootCmd creates the root command with all subcommands.
func newRootCmd(provider *AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bugbook",
		Short: "A personal bug tracker that lives in your project directory",
		Long: `Bugbook keeps a log of the errors you hit and how you fixed them.
Bugs are stored as one JSON file each under .bugbook/bugs/ in the current
directory, so they are easy to grep, diff and commit alongside your code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags - these populate the provider config
	rootCmd.PersistentFlags().BoolVar(&provider.JSONOutput, "json", provider.JSONOutput, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&provider.Dir, "dir", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&provider.ConfigPath, "config", "", "Config file (default: $BUGBOOK_CONFIG or ~/.bugbookrc)")

	rootCmd.AddCommand(newInitCmd(provider))
	rootCmd.AddCommand(newAddCmd(provider))
	rootCmd.AddCommand(newListCmd(provider))
	rootCmd.AddCommand(newShowCmd(provider))
	rootCmd.AddCommand(newEditCmd(provider))
	rootCmd.AddCommand(newDeleteCmd(provider))
	rootCmd.AddCommand(newResolveCmd(provider))
	rootCmd.AddCommand(newCommentCmd(provider))
	rootCmd.AddCommand(newTagsCmd(provider))
	rootCmd.AddCommand(newStatsCmd(provider))
	rootCmd.AddCommand(newExportCmd(provider))
	rootCmd.AddCommand(newConfigCmd(provider))
	rootCmd.AddCommand(newMigrateCmd(provider))
	rootCmd.AddCommand(newVersionCmd(provider))

	return rootCmd
}
