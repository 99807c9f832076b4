package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apigee-127/a127/internal/account"
	"github.com/apigee-127/a127/internal/project"
)

var (
	directoryFlag string
	addValueFlags []string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Work with the current API project",
}

var projectDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the project with the selected account",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, opts, err := projectAndOptions()
		if err != nil {
			return err
		}
		result, err := accounts.DeployProject(proj, opts)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

var projectUndeployCmd = &cobra.Command{
	Use:   "undeploy",
	Short: "Undeploy the project from the selected account",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, opts, err := projectAndOptions()
		if err != nil {
			return err
		}
		result, err := accounts.UndeployProject(proj, opts)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

var projectBindCmd = &cobra.Command{
	Use:   "bind <service>",
	Short: "Bind a service to the project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := project.Read(directoryFlag)
		if err != nil {
			return err
		}
		svc, err := services.Get(args[0])
		if err != nil {
			return err
		}
		return proj.BindService(args[0], svc.Data)
	},
}

var projectUnbindCmd = &cobra.Command{
	Use:   "unbind <service>",
	Short: "Remove a service binding from the project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := project.Read(directoryFlag)
		if err != nil {
			return err
		}
		return proj.UnbindService(args[0])
	},
}

var projectBindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "List the project's bound services",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := project.Read(directoryFlag)
		if err != nil {
			return err
		}
		bindings, err := proj.Services()
		if err != nil {
			return err
		}
		if len(bindings) == 0 {
			fmt.Println("No services bound.")
			return nil
		}
		out, err := yaml.Marshal(bindings)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var projectShowConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Print the account document a deploy would stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, opts, err := projectAndOptions()
		if err != nil {
			return err
		}
		staged, err := accounts.StagedConfig(proj, opts)
		if err != nil {
			return err
		}
		printResult(staged)
		return nil
	},
}

var projectOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the project's base path in a browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := project.Read(directoryFlag)
		if err != nil {
			return err
		}
		url := fmt.Sprintf("http://localhost:10010%s", proj.API.BasePath)
		return opener.Open(url)
	},
}

func projectAndOptions() (*project.Project, account.DeployOptions, error) {
	proj, err := project.Read(directoryFlag)
	if err != nil {
		return nil, account.DeployOptions{}, err
	}
	additional, err := parseFieldArgs(addValueFlags)
	if err != nil {
		return nil, account.DeployOptions{}, err
	}
	return proj, account.DeployOptions{Options: commandOptions(), Additional: additional}, nil
}

func init() {
	projectCmd.PersistentFlags().StringVarP(&directoryFlag, "directory", "d", ".", "project directory")
	projectCmd.PersistentFlags().StringVarP(&accountFlag, "account", "a", "", "use the named account")
	projectDeployCmd.Flags().StringArrayVar(&addValueFlags, "value", nil, "additional deployment field (key=value, repeatable)")
	projectShowConfigCmd.Flags().StringArrayVar(&addValueFlags, "value", nil, "additional deployment field (key=value, repeatable)")

	projectCmd.AddCommand(projectDeployCmd, projectUndeployCmd, projectBindCmd,
		projectUnbindCmd, projectBindingsCmd, projectShowConfigCmd, projectOpenCmd)
	rootCmd.AddCommand(projectCmd)
}
