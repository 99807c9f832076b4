package cmd

import (
	"github.com/spf13/cobra"

	"github.com/apigee-127/a127/internal/project"
)

var (
	providerFlag string
	valueFlags   []string
	logsDirFlag  string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage deployment accounts",
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts (the selected account is marked with +)",
	RunE: func(cmd *cobra.Command, args []string) error {
		printResult(accounts.List())
		return nil
	},
}

var accountCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an account for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := parseFieldArgs(valueFlags)
		if err != nil {
			return err
		}
		opts := commandOptions()
		opts.Provider = providerFlag
		acct, err := accounts.Create(args[0], opts, answers)
		if err != nil {
			return err
		}
		printResult(map[string]string(acct.Fields))
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete an account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return accounts.Delete(optionalArg(args), commandOptions())
	},
}

var accountSelectCmd = &cobra.Command{
	Use:   "select [name]",
	Short: "Make an account the default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := accounts.Select(optionalArg(args), commandOptions())
		if err != nil {
			return err
		}
		printResult(map[string]string(acct.Fields))
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show an account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := accounts.Show(optionalArg(args), commandOptions())
		if err != nil {
			return err
		}
		printResult(map[string]string(acct.Fields))
		return nil
	},
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update [name]",
	Short: "Re-prompt and update an account's fields",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := accounts.Update(optionalArg(args), commandOptions())
		if err != nil {
			return err
		}
		printResult(map[string]string(acct.Fields))
		return nil
	},
}

var accountSetValueCmd = &cobra.Command{
	Use:   "set-value <key> <value>",
	Short: "Set one field on the selected account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := accounts.SetValue("", commandOptions(), args[0], args[1])
		if err != nil {
			return err
		}
		printResult(map[string]string(acct.Fields))
		return nil
	},
}

var accountDeleteValueCmd = &cobra.Command{
	Use:   "delete-value <key>",
	Short: "Remove one field from the selected account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := accounts.DeleteValue("", commandOptions(), args[0])
		if err != nil {
			return err
		}
		printResult(map[string]string(acct.Fields))
		return nil
	},
}

var accountProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List available providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		printResult(accounts.Providers())
		return nil
	},
}

var accountLogsCmd = &cobra.Command{
	Use:   "logs [name]",
	Short: "Fetch the remote logs for the current project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proj, err := project.Read(logsDirFlag)
		if err != nil {
			return err
		}
		logs, err := accounts.Logs(optionalArg(args), commandOptions(), proj)
		if err != nil {
			return err
		}
		printResult(logs)
		return nil
	},
}

var accountDeploymentsCmd = &cobra.Command{
	Use:   "deployments [name]",
	Short: "List the account's active deployments",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deployments, err := accounts.ListDeployments(optionalArg(args), commandOptions())
		if err != nil {
			return err
		}
		printResult(deployments)
		return nil
	},
}

func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func init() {
	accountCmd.PersistentFlags().StringVarP(&accountFlag, "account", "a", "", "use the named account")
	accountCreateCmd.Flags().StringVarP(&providerFlag, "provider", "p", "", "provider name")
	accountCreateCmd.Flags().StringArrayVar(&valueFlags, "value", nil, "pre-answer a field (key=value, repeatable)")
	accountLogsCmd.Flags().StringVarP(&logsDirFlag, "directory", "d", ".", "project directory")

	accountCmd.AddCommand(accountListCmd, accountCreateCmd, accountDeleteCmd,
		accountSelectCmd, accountShowCmd, accountUpdateCmd,
		accountSetValueCmd, accountDeleteValueCmd,
		accountProvidersCmd, accountDeploymentsCmd, accountLogsCmd)
	rootCmd.AddCommand(accountCmd)
}
