package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage provider-bound services",
}

var serviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List services",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := services.List()
		if len(list) == 0 {
			fmt.Println("No services found.")
			return nil
		}
		names := make([]string, 0, len(list))
		for name := range list {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			meta := list[name]
			fmt.Printf("%s: %s (%s)\n", name, meta.Type, meta.Account)
		}
		return nil
	},
}

var serviceCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a service through the selected account's provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := services.Create(optionalArg(args), commandOptions())
		if err != nil {
			return err
		}
		fmt.Printf("created %s service for %s\n", svc.Metadata.Type, svc.Metadata.Account)
		return nil
	},
}

var serviceDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return services.Delete(args[0], commandOptions())
	},
}

var serviceTypesCmd = &cobra.Command{
	Use:   "types [account]",
	Short: "List service types offered by the account's provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := services.Types(optionalArg(args), commandOptions())
		if err != nil {
			return err
		}
		printResult(types)
		return nil
	},
}

func init() {
	serviceCmd.PersistentFlags().StringVarP(&accountFlag, "account", "a", "", "use the named account")
	serviceCmd.AddCommand(serviceListCmd, serviceCreateCmd, serviceDeleteCmd, serviceTypesCmd)
	rootCmd.AddCommand(serviceCmd)
}
