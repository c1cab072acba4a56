package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"envhub/pkg/client"
	"envhub/pkg/probe"
	"envhub/pkg/proxy"
)

var (
	debugFlag    bool
	proxyFlag    string
	noProxyFlag  string
	insecureFlag bool
	caCertFlag   string
	logger       *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "envhub",
	Short: "A client for the envhub environments service",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var logLevel slog.Level
		if debugFlag {
			logLevel = slog.LevelDebug
		} else {
			logLevel = slog.LevelInfo
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)
	},
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Work with environments",
}

var envLsCmd = &cobra.Command{
	Use:   "ls [org]",
	Short: "List the environments of an organization",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		token := ""
		for {
			envs, err := c.ListEnvironments(context.Background(), args[0], token)
			if err != nil {
				logger.Error("Error listing environments", "error", err)
				os.Exit(1)
			}
			for _, env := range envs.Environments {
				fmt.Println(env.Name)
			}
			if envs.NextToken == "" {
				break
			}
			token = envs.NextToken
		}
	},
}

var envGetCmd = &cobra.Command{
	Use:   "get [org] [env]",
	Short: "Print an environment definition as YAML",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		version, _ := cmd.Flags().GetString("version")

		var raw string
		var err error
		if version != "" {
			_, raw, err = c.GetEnvironmentAtVersion(context.Background(), args[0], args[1], version)
		} else {
			_, raw, err = c.GetEnvironment(context.Background(), args[0], args[1])
		}
		if err != nil {
			logger.Error("Error getting environment", "error", err)
			os.Exit(1)
		}
		fmt.Print(raw)
	},
}

var envOpenCmd = &cobra.Command{
	Use:   "open [org] [env]",
	Short: "Open an environment and print its evaluated values",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		version, _ := cmd.Flags().GetString("version")
		property, _ := cmd.Flags().GetString("property")

		if property != "" {
			open, err := c.OpenEnvironment(context.Background(), args[0], args[1])
			if err != nil {
				logger.Error("Error opening environment", "error", err)
				os.Exit(1)
			}
			_, value, err := c.ReadOpenEnvironmentProperty(context.Background(), args[0], args[1], open.ID, property)
			if err != nil {
				logger.Error("Error reading property", "error", err)
				os.Exit(1)
			}
			printJSON(value)
			return
		}

		var values map[string]any
		var err error
		if version != "" {
			_, values, _, err = c.OpenAndReadEnvironmentAtVersion(context.Background(), args[0], args[1], version)
		} else {
			_, values, _, err = c.OpenAndReadEnvironment(context.Background(), args[0], args[1])
		}
		if err != nil {
			logger.Error("Error opening environment", "error", err)
			os.Exit(1)
		}
		printJSON(values)
	},
}

var envInitCmd = &cobra.Command{
	Use:   "init [org] [env]",
	Short: "Create a new, empty environment",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		if err := c.CreateEnvironment(context.Background(), args[0], args[1]); err != nil {
			logger.Error("Error creating environment", "error", err)
			os.Exit(1)
		}
		logger.Info("Environment created", "org", args[0], "env", args[1])
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set [org] [env] [file]",
	Short: "Replace an environment definition from a YAML file",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		body, err := os.ReadFile(args[2])
		if err != nil {
			logger.Error("Error reading definition file", "error", err)
			os.Exit(1)
		}
		diags, err := c.UpdateEnvironmentYAML(context.Background(), args[0], args[1], string(body))
		if err != nil {
			logger.Error("Error updating environment", "error", err)
			os.Exit(1)
		}
		for _, d := range diags.Diagnostics {
			logger.Warn("Diagnostic", "summary", d.Summary, "path", d.Path)
		}
		logger.Info("Environment updated", "org", args[0], "env", args[1])
	},
}

var envCheckCmd = &cobra.Command{
	Use:   "check [org] [file]",
	Short: "Check an environment definition without saving it",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		body, err := os.ReadFile(args[1])
		if err != nil {
			logger.Error("Error reading definition file", "error", err)
			os.Exit(1)
		}
		check, err := c.CheckEnvironmentYAML(context.Background(), args[0], string(body))
		if err != nil {
			logger.Error("Error checking environment", "error", err)
			os.Exit(1)
		}
		if len(check.Diagnostics) == 0 {
			logger.Info("Definition is valid")
			return
		}
		for _, d := range check.Diagnostics {
			logger.Warn("Diagnostic", "summary", d.Summary, "path", d.Path)
		}
		os.Exit(1)
	},
}

var envRmCmd = &cobra.Command{
	Use:   "rm [org] [env]",
	Short: "Delete an environment",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		if err := c.DeleteEnvironment(context.Background(), args[0], args[1]); err != nil {
			logger.Error("Error deleting environment", "error", err)
			os.Exit(1)
		}
		logger.Info("Environment deleted", "org", args[0], "env", args[1])
	},
}

var envHistoryCmd = &cobra.Command{
	Use:   "history [org] [env]",
	Short: "List the revisions of an environment",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		before, _ := cmd.Flags().GetInt("before")
		count, _ := cmd.Flags().GetInt("count")

		revisions, err := c.ListEnvironmentRevisions(context.Background(), args[0], args[1], before, count)
		if err != nil {
			logger.Error("Error listing revisions", "error", err)
			os.Exit(1)
		}
		for _, rev := range revisions {
			fmt.Printf("%d\t%s\t%s\n", rev.Number, rev.Created.Format("2006-01-02 15:04:05"), rev.CreatorLogin)
		}
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Work with environment revision tags",
}

var tagLsCmd = &cobra.Command{
	Use:   "ls [org] [env]",
	Short: "List the revision tags of an environment",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		after := ""
		for {
			tags, err := c.ListEnvironmentRevisionTags(context.Background(), args[0], args[1], after, 0)
			if err != nil {
				logger.Error("Error listing revision tags", "error", err)
				os.Exit(1)
			}
			for _, tag := range tags.Tags {
				fmt.Printf("%s\t%d\n", tag.Name, tag.Revision)
			}
			if tags.NextToken == "" {
				break
			}
			after = tags.NextToken
		}
	},
}

var tagSetCmd = &cobra.Command{
	Use:   "set [org] [env] [tag] [revision]",
	Short: "Point a revision tag at a revision, creating it if needed",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		revision, err := strconv.Atoi(args[3])
		if err != nil {
			logger.Error("Invalid revision number", "error", err)
			os.Exit(1)
		}

		ctx := context.Background()
		if _, err := c.GetEnvironmentRevisionTag(ctx, args[0], args[1], args[2]); err != nil {
			err = c.CreateEnvironmentRevisionTag(ctx, args[0], args[1], args[2], revision)
			if err != nil {
				logger.Error("Error creating revision tag", "error", err)
				os.Exit(1)
			}
		} else {
			err = c.UpdateEnvironmentRevisionTag(ctx, args[0], args[1], args[2], revision)
			if err != nil {
				logger.Error("Error updating revision tag", "error", err)
				os.Exit(1)
			}
		}
		logger.Info("Revision tag set", "tag", args[2], "revision", revision)
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm [org] [env] [tag]",
	Short: "Delete a revision tag",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		c := initClient(cmd)
		if err := c.DeleteEnvironmentRevisionTag(context.Background(), args[0], args[1], args[2]); err != nil {
			logger.Error("Error deleting revision tag", "error", err)
			os.Exit(1)
		}
		logger.Info("Revision tag deleted", "tag", args[2])
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [transport-config]",
	Short: "Check reachability of the API endpoint, directly and through the resolved proxy",
	Args:  cobra.RangeArgs(0, 1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := initConfiguration(cmd)
		transportConfig := ""
		if len(args) > 0 {
			transportConfig = args[0]
		}

		report, err := probe.Run(context.Background(), cfg, transportConfig, logger)
		if err != nil {
			logger.Error("Error running probe", "error", err)
			os.Exit(1)
		}
		printJSON(report)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&proxyFlag, "proxy", "", "Proxy URL (empty string disables proxying entirely)")
	rootCmd.PersistentFlags().StringVar(&noProxyFlag, "no-proxy", "", "Comma-separated bypass list (empty string disables bypassing entirely)")
	rootCmd.PersistentFlags().BoolVar(&insecureFlag, "insecure", false, "Skip TLS certificate verification")
	rootCmd.PersistentFlags().StringVar(&caCertFlag, "ca-cert", "", "Path to a PEM CA bundle")

	envGetCmd.Flags().String("version", "", "Revision number or tag to read")
	envOpenCmd.Flags().String("version", "", "Revision number or tag to open")
	envOpenCmd.Flags().String("property", "", "Read a single property instead of the whole environment")
	envHistoryCmd.Flags().Int("before", 0, "List revisions before this number")
	envHistoryCmd.Flags().Int("count", 0, "Maximum number of revisions to list")

	envCmd.AddCommand(envLsCmd, envGetCmd, envOpenCmd, envInitCmd, envSetCmd, envCheckCmd, envRmCmd, envHistoryCmd)
	tagCmd.AddCommand(tagLsCmd, tagSetCmd, tagRmCmd)
	rootCmd.AddCommand(envCmd, tagCmd, probeCmd)
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.envhub")
	viper.AddConfigPath("/etc/envhub/")

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional for a client. Only complain when one
		// exists but cannot be read.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// initConfiguration layers the client configuration: stored credentials and
// process environment first, then the config file, then flags. The proxy
// fields stay unset unless the file or a flag names them, preserving their
// inherit-from-environment default.
func initConfiguration(cmd *cobra.Command) *client.Configuration {
	cfg, err := client.NewDefaultConfiguration()
	if err != nil {
		logger.Error("Error loading credentials", "error", err)
		os.Exit(1)
	}
	cfg.Logger = logger

	if viper.IsSet("api.backend_url") {
		cfg.BaseURL = viper.GetString("api.backend_url")
	}
	if viper.IsSet("api.access_token") {
		cfg.AccessToken = viper.GetString("api.access_token")
	}
	if viper.IsSet("proxy.url") {
		url := viper.GetString("proxy.url")
		cfg.Proxy = &url
	}
	if viper.IsSet("proxy.no_proxy") {
		cfg.NoProxy = proxy.ParsePatterns(viper.GetString("proxy.no_proxy"))
	}
	if viper.IsSet("proxy.headers") {
		cfg.ProxyHeaders = viper.GetStringMapString("proxy.headers")
	}
	if viper.IsSet("tls.verify") {
		cfg.VerifySSL = viper.GetBool("tls.verify")
	}
	if viper.IsSet("tls.ca_cert") {
		cfg.SSLCACert = viper.GetString("tls.ca_cert")
	}

	if cmd.Flags().Changed("proxy") {
		cfg.Proxy = &proxyFlag
	}
	if cmd.Flags().Changed("no-proxy") {
		cfg.NoProxy = proxy.ParsePatterns(noProxyFlag)
	}
	if insecureFlag {
		cfg.VerifySSL = false
	}
	if caCertFlag != "" {
		cfg.SSLCACert = caCertFlag
	}
	return cfg
}

func initClient(cmd *cobra.Command) *client.Client {
	return client.NewClient(initConfiguration(cmd))
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Error("Error encoding output", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
