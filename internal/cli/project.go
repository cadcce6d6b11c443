package cli

import (
	"os"

	"github.com/spf13/cobra"

	"tempo/internal/model"
	"tempo/internal/output"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  `Projects group tasks and scope task numbering and reports.`,
	RunE:  runProjectList,
}

var projectAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectAdd,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	Args:    cobra.NoArgs,
	RunE:    runProjectList,
}

func init() {
	projectAddCmd.Flags().StringP("description", "d", "", "project description")
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()
	ctx := cmd.Context()

	description, _ := cmd.Flags().GetString("description")
	project, err := app.Projects.CreateProject(ctx, args[0], description)
	if err != nil {
		return err
	}

	if app.outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, project)
	}
	output.Messagef(os.Stdout, "Created project %s", project.Name)
	return nil
}

func runProjectList(cmd *cobra.Command, _ []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	projects, err := app.Projects.List(cmd.Context())
	if err != nil {
		return err
	}

	if app.outputFormat() == output.FormatJSON {
		if projects == nil {
			projects = []model.Project{}
		}
		return output.JSON(os.Stdout, projects)
	}
	output.ProjectTable(os.Stdout, projects)
	return nil
}
