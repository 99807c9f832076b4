package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apigee-127/a127/internal/account"
	"github.com/apigee-127/a127/internal/browser"
	"github.com/apigee-127/a127/internal/config"
	"github.com/apigee-127/a127/internal/feedback"
	"github.com/apigee-127/a127/internal/prompt"
	"github.com/apigee-127/a127/internal/service"
	"github.com/apigee-127/a127/internal/store"
	"github.com/apigee-127/a127/internal/usergrid"

	// Built-in providers register themselves.
	_ "github.com/apigee-127/a127/internal/provider/amazon"
	_ "github.com/apigee-127/a127/internal/provider/apigee"
)

var (
	Version = "dev"

	debugFlag   bool
	accountFlag string

	cfg        *config.Config
	fb         feedback.Emitter
	opener     browser.Opener
	accounts   *account.Manager
	services   *service.Manager
	supervisor *usergrid.Supervisor
)

var rootCmd = &cobra.Command{
	Use:           "a127",
	Short:         "Build, run and deploy Swagger-driven API projects",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cfg.Debug {
			debugFlag = true
		}
		fb = feedback.NewConsole(os.Stdout)
		st := store.New(cfg, fb)
		opener = browser.System{Browser: cfg.Browser, Feedback: fb}
		accounts = account.NewManager(st, prompt.Terminal{}, opener, fb)
		services = service.NewManager(st, accounts)
		supervisor = usergrid.New(cfg.Usergrid, fb, opener)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if debugFlag {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "verbose errors and retained deployment files")
	rootCmd.Version = Version
}

// commandOptions maps the shared flags onto manager options.
func commandOptions() account.Options {
	return account.Options{Account: accountFlag, Debug: debugFlag}
}

// printResult renders command output the way the original CLI did:
// strings verbatim, lists one per line, maps as sorted "key: value".
func printResult(result any) {
	switch v := result.(type) {
	case nil:
	case string:
		if v != "" {
			fmt.Println(v)
		}
	case []string:
		for _, item := range v {
			fmt.Println(item)
		}
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %s\n", k, v[k])
		}
	default:
		fmt.Println(v)
	}
}

// parseFieldArgs turns repeated key=value flags into a field map.
func parseFieldArgs(pairs []string) (map[string]string, error) {
	fields := map[string]string{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		fields[key] = value
	}
	return fields, nil
}
