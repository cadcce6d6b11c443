// Package cli implements the tempo CLI commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"tempo/internal/clierr"
	"tempo/internal/config"
	"tempo/internal/model"
	"tempo/internal/output"
	"tempo/internal/repository"
	"tempo/internal/service"
)

// Global flags.
var (
	flagJSON    bool
	flagCompact bool
	flagNoColor bool
	flagDB      string
)

var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Track time against tasks and report on it",
	Long: `tempo tracks work time against tasks with start/pause/resume/stop and
derives time, velocity, and estimation-accuracy reports from the history.

Running tempo without a subcommand shows what is currently being tracked.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runStatus,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagNoColor || os.Getenv("NO_COLOR") != "" {
			output.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact one-line-per-record output")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "oneline", false, "alias for --compact")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "path to the sqlite database")
}

// Execute runs the root command and exits with a code derived from the
// error taxonomy.
func Execute(ctx context.Context, version string) {
	rootCmd.Version = version

	_, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return
	}

	// Determine if JSON mode is active.
	jsonMode := flagJSON
	if !jsonMode {
		jsonMode = os.Getenv("TEMPO_OUTPUT") == "json"
	}

	if jsonMode {
		var cliErr *clierr.Error
		if errors.As(err, &cliErr) {
			output.JSONError(os.Stdout, cliErr.Code, cliErr.Message, cliErr.Details)
			os.Exit(cliErr.ExitCode())
		}
		// Unknown error, wrap as INTERNAL_ERROR.
		output.JSONError(os.Stdout, clierr.InternalError, err.Error(), nil)
		os.Exit(2)
	}

	// Non-JSON mode: print to stderr.
	fmt.Fprintln(os.Stderr, err)
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		os.Exit(cliErr.ExitCode())
	}
	os.Exit(1)
}

// App bundles the configuration and services a command runs against.
type App struct {
	Config   config.Config
	Location *time.Location
	Projects *service.ProjectService
	Tasks    *service.TaskService
	Tracking *service.TrackingService
	Reports  *service.ReportService

	db *gorm.DB
}

// openApp loads configuration and wires the service stack over the database.
// Callers must Close it.
func openApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DatabasePath = flagDB
	}

	db, err := repository.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	return &App{
		Config:   cfg,
		Location: cfg.Location(),
		Projects: service.NewProjectService(projectRepo),
		Tasks:    service.NewTaskService(taskRepo, projectRepo),
		Tracking: service.NewTrackingService(taskRepo, sessionRepo),
		Reports:  service.NewReportService(taskRepo, sessionRepo, projectRepo),
		db:       db,
	}, nil
}

func (a *App) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// outputFormat returns the detected output format from flags and config.
func (a *App) outputFormat() output.Format {
	return output.Detect(flagJSON, flagCompact, a.Config.Output)
}

// taskRef renders a task's user-facing project/number reference.
func (a *App) taskRef(ctx context.Context, task *model.Task) (string, error) {
	refs, err := a.taskRefs(ctx, []model.Task{*task})
	if err != nil {
		return "", err
	}
	return refs[task.ID], nil
}

// taskRefs maps task ids to project/number references.
func (a *App) taskRefs(ctx context.Context, tasks []model.Task) (map[uint]string, error) {
	projects, err := a.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	refs := make(map[uint]string, len(tasks))
	for _, t := range tasks {
		refs[t.ID] = fmt.Sprintf("%s/%d", names[t.ProjectID], t.Number)
	}
	return refs, nil
}

// sessionTaskRefs maps the sessions' task ids to project/number references.
func (a *App) sessionTaskRefs(ctx context.Context, sessions []model.TimeSession) (map[uint]string, error) {
	tasks, err := a.Tasks.ListTasks(ctx, service.TaskQuery{})
	if err != nil {
		return nil, err
	}
	refs, err := a.taskRefs(ctx, tasks)
	if err != nil {
		return nil, err
	}

	byTask := make(map[uint]string, len(sessions))
	for _, s := range sessions {
		byTask[s.TaskID] = refs[s.TaskID]
	}
	return byTask, nil
}

// openSessionID resolves the session a transition targets: an explicit
// --session value, or the single open session.
func openSessionID(ctx context.Context, app *App, flagged uint) (uint, error) {
	if flagged != 0 {
		return flagged, nil
	}
	session, err := app.Tracking.GetActiveSession(ctx)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, clierr.New(clierr.SessionNotFound, "no open session; start one with 'tempo start'")
	}
	return session.ID, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"15:04",
}

// parseTimeFlag parses an explicit timestamp in the configured timezone.
// Empty input yields the zero time, which the services read as "now".
func parseTimeFlag(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		if layout == "15:04" {
			now := time.Now().In(loc)
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		}
		return t, nil
	}
	return time.Time{}, clierr.Newf(clierr.InvalidInput,
		"cannot parse time %q; use RFC3339, \"2006-01-02 15:04\", or \"15:04\"", value)
}

// parseRangeFlags parses optional --from/--to values.
func parseRangeFlags(fromStr, toStr string, loc *time.Location) (from, to *time.Time, err error) {
	if fromStr != "" {
		t, err := parseTimeFlag(fromStr, loc)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if toStr != "" {
		t, err := parseTimeFlag(toStr, loc)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}

// sessionView is the session snapshot exposed on the wire, the stored row
// plus its derived state.
type sessionView struct {
	model.TimeSession
	State model.SessionState `json:"state"`
}

func viewSession(s *model.TimeSession) sessionView {
	return sessionView{TimeSession: *s, State: s.State()}
}

// addTransitionFlags registers the flags shared by pause/resume/stop.
func addTransitionFlags(cmd *cobra.Command) {
	cmd.Flags().Uint("session", 0, "session id (defaults to the open session)")
	cmd.Flags().String("at", "", `explicit transition time (RFC3339, "2006-01-02 15:04", or "15:04")`)
}

// runSessionTransition resolves the target session, applies the transition,
// and prints the updated session.
func runSessionTransition(cmd *cobra.Command, verb string,
	transition func(app *App, ctx context.Context, id uint, at time.Time) (*model.TimeSession, error),
) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	sessionFlag, _ := cmd.Flags().GetUint("session")
	id, err := openSessionID(ctx, app, sessionFlag)
	if err != nil {
		return err
	}

	atStr, _ := cmd.Flags().GetString("at")
	at, err := parseTimeFlag(atStr, app.Location)
	if err != nil {
		return err
	}

	session, err := transition(app, ctx, id, at)
	if err != nil {
		return err
	}

	task, err := app.Tasks.GetTask(ctx, session.TaskID)
	if err != nil {
		return err
	}
	ref, err := app.taskRef(ctx, task)
	if err != nil {
		return err
	}

	if app.outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, viewSession(session))
	}
	output.Messagef(os.Stdout, "%s session #%d on %s (%s tracked)",
		verb, session.ID, ref, output.FormatSeconds(session.DurationSeconds))
	return nil
}
