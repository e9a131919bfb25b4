// Package main is the entrypoint for i18nctl, the command line client of the
// i18n API.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MacJediWizard/i18n/internal/config"
	"github.com/MacJediWizard/i18n/internal/httpclient"
	"github.com/MacJediWizard/i18n/pkg/models"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli holds the state shared by all commands.
type cli struct {
	configPath string
	serverURL  string
	timeout    time.Duration
	verbose    bool

	cfg    *config.ClientConfig
	client *httpclient.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "i18nctl",
		Short: "Command line client for the i18n platform API",
		Long: `i18nctl talks to the i18n platform API.

Settings are read from ~/.i18n/config.yml and the API_BASE_URL, API_TOKEN,
APP_ENV and ENABLE_MOCK environment variables. Flags win over both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default ~/.i18n/config.yml)")
	flags.StringVar(&c.serverURL, "server", "", "API base URL, e.g. http://localhost:4000/api/v1")
	flags.DurationVar(&c.timeout, "timeout", 0, "per-request timeout (default 30s)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(
		c.newVersionCmd(),
		c.newHealthCmd(),
		c.newGetCmd(),
		c.newRequestCmd(),
		c.newLoginCmd(),
		c.newLogoutCmd(),
		c.newConfigCmd(),
	)

	return rootCmd
}

func (c *cli) resolveConfigPath() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file, environment and flags.
func (c *cli) loadConfig() error {
	path, err := c.resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadClientConfig(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.serverURL != "" {
		cfg.ServerURL = strings.TrimRight(c.serverURL, "/")
	}
	if c.timeout > 0 {
		cfg.Timeout = c.timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.cfg = cfg
	return nil
}

// connect builds the API client. It must be called from RunE.
func (c *cli) connect(cmd *cobra.Command) error {
	if err := c.loadConfig(); err != nil {
		return err
	}

	level := zerolog.WarnLevel
	if c.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(level).With().Timestamp().Logger()

	hc, err := httpclient.NewFromConfig(c.cfg)
	if err != nil {
		return err
	}

	client, err := httpclient.NewClient(c.cfg.ServerURL,
		httpclient.WithHTTPClient(hc),
		httpclient.WithLogger(logger),
		httpclient.WithHeader("User-Agent", "i18nctl/"+Version),
		httpclient.WithRequestInterceptor(httpclient.RequestID()),
		httpclient.WithResponseInterceptor(httpclient.UnauthorizedWarning(logger)),
	)
	if err != nil {
		return err
	}
	client.SetAuthToken(c.cfg.Token)
	c.client = client
	return nil
}

func (c *cli) request(ctx context.Context, endpoint string, rc httpclient.RequestConfig) (*models.Envelope, error) {
	if rc.Timeout == 0 {
		rc.Timeout = c.cfg.RequestTimeout()
	}
	return c.client.Request(ctx, endpoint, rc)
}

func (c *cli) newVersionCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "i18nctl %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)

			if !remote {
				return nil
			}
			if err := c.connect(cmd); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.RequestTimeout())
			defer cancel()

			info, err := httpclient.Fetch[serverVersion](ctx, c.client, "/version")
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(out, "Server %s (commit %s, built %s)\n", info.Version, info.Commit, info.BuildDate)
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "server-version", false, "also print the server version")
	return cmd
}

type serverVersion struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

type serverHealth struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

func (c *cli) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API server is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.RequestTimeout())
			defer cancel()

			health, err := httpclient.Fetch[serverHealth](ctx, c.client, "/health")
			if err != nil {
				return describe(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:   %s\n", c.client.BaseURL())
			fmt.Fprintf(out, "Status:   %s\n", health.Status)
			fmt.Fprintf(out, "Database: %s\n", health.Database)
			fmt.Fprintf(out, "Time:     %s\n", health.Timestamp)
			return nil
		},
	}
}

func (c *cli) newGetCmd() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "get <endpoint>",
		Short: "GET an endpoint and print its data",
		Example: `  i18nctl get /locales --param page=2 --param pageSize=50
  i18nctl get /translations/greeting`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseParams(params)
			if err != nil {
				return err
			}
			if err := c.connect(cmd); err != nil {
				return err
			}

			env, err := c.request(cmd.Context(), args[0], httpclient.RequestConfig{
				Method: http.MethodGet,
				Params: query,
			})
			if err != nil {
				return describe(err)
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter as key=value (repeatable)")
	return cmd
}

func (c *cli) newRequestCmd() *cobra.Command {
	var (
		params  []string
		headers []string
		data    string
	)

	cmd := &cobra.Command{
		Use:   "request <method> <endpoint>",
		Short: "Send an arbitrary request and print the response data",
		Example: `  i18nctl request POST /translations --data '{"key":"greeting","locale":"en","value":"Hello"}'
  i18nctl request DELETE /translations/greeting -H "X-Trace: 1"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseParams(params)
			if err != nil {
				return err
			}
			hdrs, err := parseHeaders(headers)
			if err != nil {
				return err
			}

			var body []byte
			if data != "" {
				if data == "-" {
					if body, err = io.ReadAll(cmd.InOrStdin()); err != nil {
						return fmt.Errorf("read body: %w", err)
					}
				} else {
					body = []byte(data)
				}
				if !json.Valid(body) {
					return errors.New("--data must be valid JSON")
				}
			}

			if err := c.connect(cmd); err != nil {
				return err
			}
			env, err := c.request(cmd.Context(), args[1], httpclient.RequestConfig{
				Method:  strings.ToUpper(args[0]),
				Headers: hdrs,
				Body:    body,
				Params:  query,
			})
			if err != nil {
				return describe(err)
			}
			return printEnvelope(cmd.OutOrStdout(), env)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "query parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header as 'Name: value' (repeatable)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body, or - to read stdin")
	return cmd
}

func (c *cli) newLoginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API token in the config file",
		Long: `Store an API token in the config file.

Without --token the token is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Enter API token: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return errors.New("token cannot be empty")
			}

			return c.updateConfigFile(cmd, func(cfg *config.ClientConfig) {
				cfg.Token = token
				if c.serverURL != "" {
					cfg.ServerURL = strings.TrimRight(c.serverURL, "/")
				}
			}, "Token saved")
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "API token")
	return cmd
}

func (c *cli) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.updateConfigFile(cmd, func(cfg *config.ClientConfig) {
				cfg.Token = ""
			}, "Token removed")
		},
	}
}

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage client configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.loadConfig(); err != nil {
					return err
				}
				path, _ := c.resolveConfigPath()

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Config file: %s\n", path)
				fmt.Fprintf(out, "App:         %s (%s)\n", c.cfg.AppTitle, c.cfg.Environment)
				fmt.Fprintf(out, "Server URL:  %s\n", c.cfg.ServerURL)
				fmt.Fprintf(out, "Token:       %s\n", maskToken(c.cfg.Token))
				fmt.Fprintf(out, "Timeout:     %s\n", c.cfg.RequestTimeout())
				fmt.Fprintf(out, "Proxy:       %s\n", httpclient.ProxyInfo(c.cfg.Proxy))
				fmt.Fprintf(out, "Mock data:   %v\n", c.cfg.EnableMock)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-server <url>",
			Short: "Set the API base URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				probe := config.ClientConfig{ServerURL: args[0]}
				if err := probe.Validate(); err != nil {
					return err
				}
				return c.updateConfigFile(cmd, func(cfg *config.ClientConfig) {
					cfg.ServerURL = strings.TrimRight(args[0], "/")
				}, "Server URL saved")
			},
		},
		&cobra.Command{
			Use:   "set-timeout <duration>",
			Short: "Set the per-request timeout",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := time.ParseDuration(args[0])
				if err != nil || d <= 0 {
					return fmt.Errorf("invalid timeout %q", args[0])
				}
				return c.updateConfigFile(cmd, func(cfg *config.ClientConfig) {
					cfg.Timeout = d
				}, "Timeout saved")
			},
		},
	)

	return cmd
}

// updateConfigFile applies fn to the persisted file only, so environment
// overrides never leak into it.
func (c *cli) updateConfigFile(cmd *cobra.Command, fn func(*config.ClientConfig), done string) error {
	path, err := c.resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadClientFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fn(cfg)
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s to %s\n", done, path)
	return nil
}

// describe turns a transport error into a message for the terminal.
func describe(err error) error {
	apiErr, ok := httpclient.AsError(err)
	if !ok {
		return err
	}

	var b strings.Builder
	b.WriteString(apiErr.Error())

	groups := make([]string, 0, len(apiErr.Errors))
	for group := range apiErr.Errors {
		if group != models.ValidationGroup {
			groups = append(groups, group)
		}
	}
	sort.Strings(groups)
	for _, msg := range apiErr.Errors[models.ValidationGroup] {
		b.WriteString("\n  - " + msg)
	}
	if len(apiErr.Errors[models.ValidationGroup]) == 0 {
		for _, group := range groups {
			for _, msg := range apiErr.Errors[group] {
				fmt.Fprintf(&b, "\n  - %s: %s", group, msg)
			}
		}
	}

	switch apiErr.Code {
	case models.CodeUnauthorized:
		b.WriteString("\nRun 'i18nctl login' to store a valid token.")
	case models.CodeNetworkError:
		if cause := errors.Unwrap(apiErr); cause != nil {
			fmt.Fprintf(&b, "\n  cause: %v", cause)
		}
	}
	return errors.New(b.String())
}

func printEnvelope(w io.Writer, env *models.Envelope) error {
	if env.Message != "" {
		fmt.Fprintln(w, env.Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, env.Data, "", "  "); err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	pretty.WriteByte('\n')
	_, err := pretty.WriteTo(w)
	return err
}

func parseParams(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(raw))
	for _, p := range raw {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", p)
		}
		params[key] = value
	}
	return params, nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, want 'Name: value'", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// maskToken masks a token for display, showing only the first 4 characters.
func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****"
}
