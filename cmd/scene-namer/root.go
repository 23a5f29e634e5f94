package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/JamesPrial/scene-namer/internal/console"
	"github.com/JamesPrial/scene-namer/internal/report"
	"github.com/JamesPrial/scene-namer/internal/storage"
	"github.com/JamesPrial/scene-namer/internal/toolkit"
	"github.com/JamesPrial/scene-namer/pkg/config"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

const defaultConfigPath = "scene-namer.yaml"

// reportedError marks a failure the reporter has already shown to the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

type flags struct {
	configPath     string
	storageType    string
	storagePath    string
	scenePath      string
	writeBack      bool
	selectedOnly   bool
	suffix         string
	includeLights  bool
	includeGrips   bool
	includeUnnamed bool
	logLevel       string
	noColor        bool
}

// app holds what every subcommand needs once configuration is loaded
type app struct {
	flags    flags
	in       io.Reader
	settings *config.Settings
	backend  storage.Backend
	logger   *slog.Logger
}

func newRootCmd(in io.Reader) *cobra.Command {
	a := &app{in: in}

	root := &cobra.Command{
		Use:   "scene-namer",
		Short: "Make scene object names unique",
		Long: `scene-namer finds scene objects that share a name and appends numeric
suffixes ("Box 001", "Box 002", ...) until every name is unique.

Without a subcommand it starts the interactive toolbox.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runMenu,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", defaultConfigPath, "path to configuration file")
	pf.StringVar(&a.flags.storageType, "storage", "", "storage backend: memory or sqlite")
	pf.StringVar(&a.flags.storagePath, "db", "", "SQLite database path")
	pf.StringVarP(&a.flags.scenePath, "scene", "s", "", "YAML scene file to load")
	pf.BoolVar(&a.flags.writeBack, "write-back", false, "save renamed objects back to the scene file")
	pf.BoolVar(&a.flags.selectedOnly, "selected-only", false, "work on the selection only")
	pf.StringVar(&a.flags.suffix, "suffix", "", "suffix preset (space, dash, dot, underscore) or template such as ' {n:03d}'")
	pf.BoolVar(&a.flags.includeLights, "include-lights", false, "include lights")
	pf.BoolVar(&a.flags.includeGrips, "include-grips", false, "include grips")
	pf.BoolVar(&a.flags.includeUnnamed, "include-unnamed", false, "include unnamed objects")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable styled output")

	root.AddCommand(
		&cobra.Command{
			Use:   "menu",
			Short: "Start the interactive toolbox",
			Args:  cobra.NoArgs,
			RunE:  a.runMenu,
		},
		a.actionCmd("stats", "Show name statistics and duplicate frequencies", toolkit.ActionNameStats),
		a.actionCmd("list", "List object names, marking duplicates", toolkit.ActionListNames),
		a.renameCmd(),
		a.importCmd(),
		a.exportCmd(),
	)

	// teardown must also run when RunE fails
	for _, c := range append([]*cobra.Command{root}, root.Commands()...) {
		if c.RunE != nil {
			c.RunE = a.withTeardown(c.RunE)
		}
	}
	return root
}

// setup loads configuration, applies flag overrides, initializes logging and opens the backend
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var (
		settings *config.Settings
		err      error
	)
	if cmd.Flags().Changed("config") {
		settings, err = config.Load(a.flags.configPath)
	} else {
		settings, err = config.LoadOrDefault(a.flags.configPath)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfiguration, "failed to load configuration: "+err.Error())
	}

	a.applyFlags(cmd, settings)
	if err := settings.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfiguration, err.Error())
	}
	a.settings = settings

	if settings.Logging.Output == logging.LogOutputStderr {
		err = logging.InitializeWithWriter(&settings.Logging, cmd.ErrOrStderr())
	} else {
		err = logging.Initialize(&settings.Logging)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfiguration, "failed to initialize logging")
	}
	a.logger = logging.GetGlobalLogger("cli")

	// import and export manage the scene file themselves
	if cmd.Name() == "import" || cmd.Name() == "export" {
		a.backend, err = storage.NewBackend(settings)
	} else {
		a.backend, err = storage.Open(cmd.Context(), settings)
	}
	if err != nil {
		_ = a.teardown()
		return err
	}

	a.logger.Debug("Backend ready",
		slog.String("storage", settings.StorageType),
		slog.String("scene", settings.ScenePath),
	)
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, s *config.Settings) {
	changed := cmd.Flags().Changed
	if changed("storage") {
		s.StorageType = a.flags.storageType
	}
	if changed("db") {
		s.StoragePath = a.flags.storagePath
	}
	if changed("scene") {
		s.ScenePath = a.flags.scenePath
	}
	if changed("write-back") {
		s.WriteBack = a.flags.writeBack
	}
	if changed("selected-only") {
		s.Rename.SelectedOnly = a.flags.selectedOnly
	}
	if changed("suffix") {
		s.Rename.Suffix = a.flags.suffix
	}
	if changed("include-lights") {
		s.Rename.Filters.IncludeLights = a.flags.includeLights
	}
	if changed("include-grips") {
		s.Rename.Filters.IncludeGrips = a.flags.includeGrips
	}
	if changed("include-unnamed") {
		s.Rename.Filters.IncludeUnnamed = a.flags.includeUnnamed
	}
	if changed("log-level") {
		s.Logging.Level = logging.LogLevel(strings.ToLower(a.flags.logLevel))
	}
}

// withTeardown closes the backend and flushes logging once run returns, whatever its outcome
func (a *app) withTeardown(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if tdErr := a.teardown(); err == nil {
				err = tdErr
			}
		}()
		return run(cmd, args)
	}
}

func (a *app) teardown() error {
	var err error
	if a.backend != nil {
		err = a.backend.Close()
		a.backend = nil
	}
	if shutdownErr := logging.Shutdown(); err == nil {
		err = shutdownErr
	}
	return err
}

func (a *app) reporter(cmd *cobra.Command) *report.Reporter {
	opts := []report.Option{report.WithDescriptions(a.settings.Rename.IncludeDescription)}
	if a.flags.noColor {
		opts = append(opts, report.WithStyle(false))
	}
	return report.New(cmd.OutOrStdout(), opts...)
}

func (a *app) manager(cmd *cobra.Command) (*toolkit.Manager, error) {
	var opts []toolkit.Option
	if a.settings.WriteBack {
		opts = append(opts, toolkit.WithAfterApply(a.saveScene))
	}
	return toolkit.NewManager(a.backend, a.settings.Rename, a.reporter(cmd), opts...)
}

// saveScene writes the backend back to the configured scene file
func (a *app) saveScene(ctx context.Context) error {
	doc, err := storage.Export(ctx, a.backend)
	if err != nil {
		return err
	}
	if err := storage.SaveScene(a.settings.ScenePath, doc); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Scene written back", slog.String("path", a.settings.ScenePath))
	return nil
}

func (a *app) runMenu(cmd *cobra.Command, args []string) error {
	m, err := a.manager(cmd)
	if err != nil {
		return err
	}
	return console.New(a.in, cmd.OutOrStdout(), m).Start(cmd.Context())
}
