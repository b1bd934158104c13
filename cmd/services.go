package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gpteach/gpteach/internal/calendar"
	"github.com/gpteach/gpteach/internal/config"
	"github.com/gpteach/gpteach/internal/curriculum"
	"github.com/gpteach/gpteach/internal/generator"
	"github.com/gpteach/gpteach/internal/llm"
	"github.com/gpteach/gpteach/internal/logging"
	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/screen"
	"github.com/gpteach/gpteach/internal/store"
	"github.com/gpteach/gpteach/internal/wizard"
)

// services holds everything a command may need. Fields are filled lazily
// by the with* helpers so cheap commands stay cheap.
type services struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store

	generator    *generator.Service
	generatorErr error
	curriculum   *curriculum.Service
	templates    *plan.Registry
}

// openServices loads config, the logger and the store.
func openServices(cmd *cobra.Command) (*services, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogPath(), cfg.Log.Level, cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("store opened", zap.String("path", dbPath))

	return &services{cfg: cfg, logger: logger, store: st}, nil
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then the config file or GPTEACH_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Paths.DB != "" {
		return cfg.Paths.DB, store.EnsureDir(cfg.Paths.DB)
	}
	return store.DefaultDBPath()
}

func (s *services) Close() {
	s.store.Close()
	_ = s.logger.Sync()
}

// withGenerator builds the provider chain. A missing API key is recorded
// in generatorErr rather than failing the command.
func (s *services) withGenerator(ctx context.Context) {
	if s.generator != nil || s.generatorErr != nil {
		return
	}
	provider, err := llm.NewProvider(ctx, s.cfg.LLMConfig(), s.store.EventRepo(), s.logger)
	if err != nil {
		s.generatorErr = err
		s.logger.Warn("LLM provider not configured", zap.Error(err))
		return
	}
	s.generator = generator.NewService(provider, s.cfg.GeneratorConfig())
}

func (s *services) withCurriculum() *curriculum.Service {
	if s.curriculum == nil {
		s.curriculum = curriculum.NewService(curriculum.CSVLoader{Path: s.cfg.Paths.Curriculum}, s.logger)
	}
	return s.curriculum
}

func (s *services) withTemplates() (*plan.Registry, error) {
	if s.templates != nil {
		return s.templates, nil
	}
	reg, err := plan.LoadRegistry(s.cfg.TemplatesDir())
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	s.templates = reg
	return reg, nil
}

// wizardGenerator returns the generator as a wizard.Generator, keeping the
// interface nil when none is available.
func (s *services) wizardGenerator() wizard.Generator {
	if s.generator == nil {
		return nil
	}
	return s.generator
}

// newWizard builds a wizard over doc with the configured rules, recording
// its steps in the event store.
func (s *services) newWizard(doc *plan.Document, gen wizard.Generator) *wizard.Wizard {
	return wizard.New(doc, gen, s.withCurriculum(), s.cfg.WizardConfig(),
		wizard.WithLogger(s.logger), wizard.WithEvents(s.store.EventRepo(), doc.ID))
}

// screenDeps assembles the TUI dependencies.
func (s *services) screenDeps(ctx context.Context) (*screen.Deps, error) {
	s.withGenerator(ctx)
	reg, err := s.withTemplates()
	if err != nil {
		return nil, err
	}
	deps := &screen.Deps{
		Plans:        s.store.PlanRepo(),
		Events:       s.store.EventRepo(),
		Generator:    s.wizardGenerator(),
		Outcomes:     s.withCurriculum(),
		Wizard:       s.cfg.WizardConfig(),
		Logger:       s.logger,
		GeneratorErr: s.generatorErr,
	}
	deps.SetTemplates(reg)
	return deps, nil
}

// scheduler connects to Google Calendar.
func (s *services) scheduler(ctx context.Context) (*calendar.Scheduler, error) {
	c := s.cfg.Calendar
	sch, err := calendar.New(ctx, calendar.Config{
		CredentialsFile: c.CredentialsFile,
		CalendarID:      c.CalendarID,
		TimeZone:        c.TimeZone,
	})
	if errors.Is(err, calendar.ErrNoCredentials) {
		return nil, fmt.Errorf("%w: set calendar.credentials_file or GPTEACH_CALENDAR_CREDENTIALS", err)
	}
	return sch, err
}

// loadPlan fetches a plan by id or unique id prefix.
func (s *services) loadPlan(ctx context.Context, ref string) (*plan.Document, error) {
	repo := s.store.PlanRepo()
	doc, err := repo.Get(ctx, ref)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	lib := s.store.LibraryRepo()
	live, err := lib.FindPlans(ctx, store.PlanFilter{})
	if err != nil {
		return nil, err
	}
	trashed, err := lib.FindPlans(ctx, store.PlanFilter{Trashed: true})
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, p := range append(live, trashed...) {
		ids = append(ids, p.ID)
	}
	match, err := matchPrefix("plan", ref, ids)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, match)
}

// loadClass resolves a class by id, id prefix or case-insensitive name.
// Archived classes resolve too.
func (s *services) loadClass(ctx context.Context, ref string) (*plan.Class, error) {
	lib := s.store.LibraryRepo()
	c, err := lib.GetClass(ctx, ref)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	var all []plan.Class
	for _, archived := range []bool{false, true} {
		cs, err := lib.ListClasses(ctx, archived)
		if err != nil {
			return nil, err
		}
		all = append(all, cs...)
	}

	var ids []string
	for _, c := range all {
		if strings.EqualFold(c.Name, ref) {
			return lib.GetClass(ctx, c.ID)
		}
		ids = append(ids, c.ID)
	}
	match, err := matchPrefix("class", ref, ids)
	if err != nil {
		return nil, err
	}
	return lib.GetClass(ctx, match)
}

// loadFolder resolves a live folder of classID by id, id prefix or name,
// searching the whole tree.
func (s *services) loadFolder(ctx context.Context, classID, ref string) (*plan.Folder, error) {
	lib := s.store.LibraryRepo()
	var all []plan.Folder
	parents := []string{""}
	for len(parents) > 0 {
		var next []string
		for _, p := range parents {
			fs, err := lib.ListFolders(ctx, classID, p)
			if err != nil {
				return nil, err
			}
			for _, f := range fs {
				all = append(all, f)
				next = append(next, f.ID)
			}
		}
		parents = next
	}

	var ids []string
	for _, f := range all {
		if f.ID == ref || strings.EqualFold(f.Name, ref) {
			return &f, nil
		}
		ids = append(ids, f.ID)
	}
	match, err := matchPrefix("folder", ref, ids)
	if err != nil {
		return nil, err
	}
	for _, f := range all {
		if f.ID == match {
			return &f, nil
		}
	}
	return nil, fmt.Errorf("folder %q: %w", ref, store.ErrNotFound)
}

// matchPrefix picks the single id starting with ref. Prefixes shorter than
// four characters never match.
func matchPrefix(kind, ref string, ids []string) (string, error) {
	var match string
	for _, id := range ids {
		if len(ref) >= 4 && strings.HasPrefix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("%s id %q is ambiguous", kind, ref)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%s %q: %w", kind, ref, store.ErrNotFound)
	}
	return match, nil
}
