package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const requestTimeout = 30 * time.Second

type options struct {
	serviceURL string
	token      string
	debug      bool
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "nurturectl",
		Short:         "Command line client for the nurture tracker service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})
			if opts.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.serviceURL, "service-url", getEnv("NURTURE_SERVICE_URL", "http://localhost:8080"), "Base URL of the nurture service")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("NURTURE_TOKEN"), "Bearer token printed by the login command")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable verbose debug output")

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newCustomersCmd(opts))
	root.AddCommand(newDayCmd(opts))
	root.AddCommand(newBackupCmd(opts))
	root.AddCommand(newDevicesCmd(opts))
	return root
}

func (o *options) client() *apiClient { return newAPIClient(o.serviceURL, o.token) }

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLoginCmd(opts *options) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()

			host, _ := os.Hostname()
			var out struct {
				Token    string `json:"token"`
				DeviceID string `json:"deviceId"`
			}
			err := opts.client().do(ctx, http.MethodPost, "/api/login", map[string]interface{}{
				"username": username,
				"password": password,
				"device": map[string]string{
					"userAgent": "nurturectl (" + runtime.GOOS + ")",
					"screen":    host,
				},
			}, &out)
			if err != nil {
				return err
			}
			log.Debug().Str("device_id", out.DeviceID).Msg("logged in")
			fmt.Fprintln(cmd.OutOrStdout(), out.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Account username (required)")
	cmd.Flags().StringVar(&password, "password", os.Getenv("NURTURE_PASSWORD"), "Account password")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newCustomersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "customers", Short: "List and add customers"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List visible customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			var list []map[string]interface{}
			if err := opts.client().do(ctx, http.MethodGet, "/api/customers", nil, &list); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, c := range list {
				fmt.Fprintf(w, "%v\t%v\tday %v\t%v%%\t%v\n", c["id"], c["name"], c["currentDay"], c["totalProgress"], c["status"])
			}
			return nil
		},
	})

	var name string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			var c map[string]interface{}
			if err := opts.client().do(ctx, http.MethodPost, "/api/customers", map[string]string{"name": name}, &c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Customer created: %v - %v\n", c["id"], c["name"])
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "Customer name (required)")
	_ = add.MarkFlagRequired("name")
	cmd.AddCommand(add)
	return cmd
}

func newDayCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "day", Short: "Inspect and complete nurture days"}

	var customerID string
	var day int
	complete := &cobra.Command{
		Use:   "complete",
		Short: "Mark a day complete once all its questions are answered",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			var c map[string]interface{}
			path := "/api/customers/" + customerID + "/days/" + strconv.Itoa(day) + "/complete"
			if err := opts.client().do(ctx, http.MethodPost, path, nil, &c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Day %d complete; current day %v, progress %v%%\n", day, c["currentDay"], c["totalProgress"])
			return nil
		},
	}
	progress := &cobra.Command{
		Use:   "progress",
		Short: "Show answered questions for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			var p map[string]interface{}
			path := "/api/customers/" + customerID + "/days/" + strconv.Itoa(day) + "/progress"
			if err := opts.client().do(ctx, http.MethodGet, path, nil, &p); err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}
	for _, c := range []*cobra.Command{complete, progress} {
		c.Flags().StringVar(&customerID, "customer", "", "Customer ID (required)")
		c.Flags().IntVar(&day, "day", 0, "Day number 1-7 (required)")
		_ = c.MarkFlagRequired("customer")
		_ = c.MarkFlagRequired("day")
		cmd.AddCommand(c)
	}
	return cmd
}

func newBackupCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{Use: "backup", Short: "Export or restore all stored documents"}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download a backup snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			var snap json.RawMessage
			if err := opts.client().do(ctx, http.MethodGet, "/api/backup", nil, &snap); err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err := cmd.OutOrStdout().Write(append(snap, '\n'))
				return err
			}
			if err := os.WriteFile(out, snap, 0o600); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", out)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "Output file; stdout when empty")

	var in string
	restore := &cobra.Command{
		Use:   "import",
		Short: "Restore a backup snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			if !json.Valid(b) {
				return fmt.Errorf("%s is not valid JSON", in)
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			var res struct {
				Imported int `json:"imported"`
			}
			if err := opts.client().do(ctx, http.MethodPost, "/api/backup", json.RawMessage(b), &res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d documents\n", res.Imported)
			return nil
		},
	}
	restore.Flags().StringVarP(&in, "file", "f", "", "Backup file (required)")
	_ = restore.MarkFlagRequired("file")

	cmd.AddCommand(export, restore)
	return cmd
}

func newDevicesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the devices logged in to this account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			var list []map[string]interface{}
			if err := opts.client().do(ctx, http.MethodGet, "/api/devices", nil, &list); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, d := range list {
				fmt.Fprintf(w, "%v\t%v\t%v\n", d["id"], d["deviceInfo"], d["lastActivity"])
			}
			return nil
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
