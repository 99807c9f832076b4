package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/apigee-127/a127/internal/usergrid"
)

var (
	downloadFlag bool
	resetFlag    bool
	portalFlag   bool
	tailLines    int
	tailFollow   bool
)

var usergridCmd = &cobra.Command{
	Use:   "usergrid",
	Short: "Run a local Usergrid for development",
}

var usergridStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start Usergrid",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := supervisor.Start(usergrid.StartOptions{
			Download: downloadFlag,
			Reset:    resetFlag,
			Portal:   portalFlag,
		})
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

var usergridStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop Usergrid",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := supervisor.Stop()
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

var usergridPidCmd = &cobra.Command{
	Use:   "pid",
	Short: "Print the Usergrid process id",
	RunE: func(cmd *cobra.Command, args []string) error {
		printResult(supervisor.Pid())
		return nil
	},
}

var usergridTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the end of the Usergrid log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return supervisor.Tail(os.Stdout, usergrid.TailOptions{
			Lines:  tailLines,
			Follow: tailFollow,
		})
	},
}

var usergridDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the Usergrid launcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := supervisor.Download()
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

var usergridPortalCmd = &cobra.Command{
	Use:   "portal",
	Short: "Open the Usergrid portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return supervisor.Portal()
	},
}

func init() {
	usergridStartCmd.Flags().BoolVar(&downloadFlag, "download", false, "download Usergrid first if needed")
	usergridStartCmd.Flags().BoolVar(&resetFlag, "reset", false, "reset the Usergrid database")
	usergridStartCmd.Flags().BoolVar(&portalFlag, "portal", false, "open the portal once started")
	usergridTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 0, "number of log lines to print")
	usergridTailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "keep printing new log lines")

	usergridCmd.AddCommand(usergridStartCmd, usergridStopCmd, usergridPidCmd,
		usergridTailCmd, usergridDownloadCmd, usergridPortalCmd)
	rootCmd.AddCommand(usergridCmd)
}
