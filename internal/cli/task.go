package cli

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/clierr"
	"tempo/internal/model"
	"tempo/internal/output"
	"tempo/internal/repository"
	"tempo/internal/service"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long: `Tasks are the unit of work time is tracked against. Each task belongs
to a project and is addressed as PROJECT/NUMBER, for example api/3.`,
	RunE: runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Args:    cobra.NoArgs,
	RunE:    runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show TASK",
	Short: "Show task details and its sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update TASK",
	Short: "Update task fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done TASK",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm TASK",
	Short: "Delete a task and its sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

func init() {
	taskAddCmd.Flags().StringP("project", "p", "inbox", "project the task belongs to")
	taskAddCmd.Flags().StringP("description", "d", "", "task description")
	taskAddCmd.Flags().Float64("points", 0, "size estimate in points")
	taskAddCmd.Flags().Float64("estimate", 0, "time estimate in hours")
	taskAddCmd.Flags().StringSlice("tags", nil, "tags (comma-separated)")

	taskListCmd.Flags().StringP("project", "p", "", "filter by project")
	taskListCmd.Flags().StringSlice("state", nil, "filter by state (comma-separated)")
	taskListCmd.Flags().String("tag", "", "filter by tag")
	taskListCmd.Flags().String("from", "", "include tasks updated at or after this time")
	taskListCmd.Flags().String("to", "", "include tasks updated before this time")

	taskUpdateCmd.Flags().String("title", "", "new title")
	taskUpdateCmd.Flags().StringP("description", "d", "", "new description")
	taskUpdateCmd.Flags().String("state", "", "new state ("+stateNames()+")")
	taskUpdateCmd.Flags().Float64("points", 0, "new size estimate in points")
	taskUpdateCmd.Flags().Float64("estimate", 0, "new time estimate in hours")
	taskUpdateCmd.Flags().StringSlice("tags", nil, "replacement tag set (comma-separated)")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}

// taskView is a task plus its user-facing reference for JSON output.
type taskView struct {
	model.Task
	Ref string `json:"ref"`
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	input := service.TaskInput{Title: args[0]}
	input.Project, _ = cmd.Flags().GetString("project")
	input.Description, _ = cmd.Flags().GetString("description")
	input.Tags, _ = cmd.Flags().GetStringSlice("tags")
	if cmd.Flags().Changed("points") {
		v, _ := cmd.Flags().GetFloat64("points")
		input.SizeEstimate = &v
	}
	if cmd.Flags().Changed("estimate") {
		v, _ := cmd.Flags().GetFloat64("estimate")
		input.TimeEstimateHours = &v
	}

	task, err := app.Tasks.CreateTask(ctx, input)
	if err != nil {
		return err
	}

	ref, err := app.taskRef(ctx, task)
	if err != nil {
		return err
	}

	if app.outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, taskView{Task: *task, Ref: ref})
	}
	output.Messagef(os.Stdout, "Created task %s: %s", ref, task.Title)
	return nil
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	var query service.TaskQuery
	query.Project, _ = cmd.Flags().GetString("project")
	query.Tag, _ = cmd.Flags().GetString("tag")

	stateValues, _ := cmd.Flags().GetStringSlice("state")
	query.States, err = parseStates(stateValues)
	if err != nil {
		return err
	}

	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	query.From, query.To, err = parseRangeFlags(fromStr, toStr, app.Location)
	if err != nil {
		return err
	}

	tasks, err := app.Tasks.ListTasks(ctx, query)
	if err != nil {
		return err
	}

	refs, err := app.taskRefs(ctx, tasks)
	if err != nil {
		return err
	}

	format := app.outputFormat()
	if format == output.FormatJSON {
		views := make([]taskView, 0, len(tasks))
		for _, t := range tasks {
			views = append(views, taskView{Task: t, Ref: refs[t.ID]})
		}
		return output.JSON(os.Stdout, views)
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, tasks, refs)
		return nil
	}
	output.TaskTable(os.Stdout, tasks, refs)
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	task, err := app.Tasks.GetTaskByReference(ctx, args[0])
	if err != nil {
		return err
	}
	ref, err := app.taskRef(ctx, task)
	if err != nil {
		return err
	}

	sessions, err := app.Tracking.ListSessions(ctx, repository.SessionFilter{TaskIDs: []uint{task.ID}})
	if err != nil {
		return err
	}

	open, err := app.Tracking.GetActiveSessionForTask(ctx, task.ID)
	if err != nil {
		return err
	}
	var elapsed int64
	if open != nil {
		if elapsed, err = open.DurationAt(time.Now()); err != nil {
			return err
		}
	}

	if app.outputFormat() == output.FormatJSON {
		views := make([]sessionView, 0, len(sessions))
		for i := range sessions {
			views = append(views, viewSession(&sessions[i]))
		}
		var active *sessionView
		if open != nil {
			v := viewSession(open)
			active = &v
		}
		return output.JSON(os.Stdout, struct {
			taskView
			Sessions []sessionView `json:"sessions"`
			Active   *sessionView  `json:"activeSession,omitempty"`
		}{taskView{Task: *task, Ref: ref}, views, active})
	}

	output.TaskDetail(os.Stdout, app.Location, task, ref, sessions, open, elapsed)
	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	task, err := app.Tasks.GetTaskByReference(ctx, args[0])
	if err != nil {
		return err
	}

	var update service.TaskUpdate
	if cmd.Flags().Changed("title") {
		v, _ := cmd.Flags().GetString("title")
		update.Title = &v
	}
	if cmd.Flags().Changed("description") {
		v, _ := cmd.Flags().GetString("description")
		update.Description = &v
	}
	if cmd.Flags().Changed("state") {
		v, _ := cmd.Flags().GetString("state")
		state := model.TaskState(v)
		if !state.Valid() {
			return clierr.Newf(clierr.InvalidInput, "invalid state %q; valid: %s", v, stateNames())
		}
		update.State = &state
	}
	if cmd.Flags().Changed("points") {
		v, _ := cmd.Flags().GetFloat64("points")
		update.SizeEstimate = &v
	}
	if cmd.Flags().Changed("estimate") {
		v, _ := cmd.Flags().GetFloat64("estimate")
		update.TimeEstimateHours = &v
	}
	if cmd.Flags().Changed("tags") {
		update.Tags, _ = cmd.Flags().GetStringSlice("tags")
	}

	task, err = app.Tasks.UpdateTask(ctx, task.ID, update)
	if err != nil {
		return err
	}

	ref, err := app.taskRef(ctx, task)
	if err != nil {
		return err
	}
	if app.outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, taskView{Task: *task, Ref: ref})
	}
	output.Messagef(os.Stdout, "Updated task %s", ref)
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	task, err := app.Tasks.GetTaskByReference(ctx, args[0])
	if err != nil {
		return err
	}

	task, err = app.Tasks.CompleteTask(ctx, task.ID)
	if err != nil {
		return err
	}

	ref, err := app.taskRef(ctx, task)
	if err != nil {
		return err
	}
	if app.outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, taskView{Task: *task, Ref: ref})
	}
	output.Messagef(os.Stdout, "Completed task %s: %s", ref, task.Title)
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	task, err := app.Tasks.GetTaskByReference(ctx, args[0])
	if err != nil {
		return err
	}
	ref, err := app.taskRef(ctx, task)
	if err != nil {
		return err
	}

	if err := app.Tasks.DeleteTask(ctx, task.ID); err != nil {
		return err
	}

	if app.outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"deleted": true, "ref": ref, "id": task.ID})
	}
	output.Messagef(os.Stdout, "Deleted task %s", ref)
	return nil
}

// parseStates validates state filter values.
func parseStates(values []string) ([]model.TaskState, error) {
	if len(values) == 0 {
		return nil, nil
	}
	states := make([]model.TaskState, 0, len(values))
	for _, v := range values {
		state := model.TaskState(v)
		if !state.Valid() {
			return nil, clierr.Newf(clierr.InvalidInput, "invalid state %q; valid: %s", v, stateNames())
		}
		states = append(states, state)
	}
	return states, nil
}

func stateNames() string {
	states := model.TaskStates()
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
