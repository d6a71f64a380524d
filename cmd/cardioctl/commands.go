package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	cardio "github.com/iselfietest/cardio-sdk"
	"github.com/iselfietest/cardio-sdk/application/config"
	"github.com/iselfietest/cardio-sdk/application/entitlement"
	"github.com/iselfietest/cardio-sdk/application/schema"
	"github.com/iselfietest/cardio-sdk/domain/entities"
	"github.com/iselfietest/cardio-sdk/domain/policy"
	"github.com/iselfietest/cardio-sdk/infrastructure/web"
	sdklog "github.com/iselfietest/cardio-sdk/log"
)

type globalFlags struct {
	configPath string
	env        string
	verbose    bool
	timeout    time.Duration
}

type credentialFlags struct {
	apiKey      string
	accessToken string
	orgID       string
	domain      string
}

func (f credentialFlags) credentials() (entities.Credentials, error) {
	switch {
	case f.apiKey != "" && f.accessToken != "":
		return entities.Credentials{}, fmt.Errorf("--api-key and --access-token are mutually exclusive")
	case f.accessToken != "":
		if f.orgID == "" {
			return entities.Credentials{}, fmt.Errorf("--org is required with --access-token")
		}
		return entities.NewAccessTokenCredentials(f.accessToken, f.orgID), nil
	case f.apiKey != "":
		return entities.NewAPIKeyCredentials(f.apiKey, f.orgID), nil
	default:
		return entities.Credentials{}, fmt.Errorf("one of --api-key or --access-token is required")
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "cardioctl",
		Short:         "iSelfieTest cardio SDK tooling",
		Long:          `Verify credentials, check cardio test availability and print the SDK JSON schemas.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if g.verbose {
				level = slog.LevelDebug
			}
			sdklog.Install(sdklog.WithLevel(level), sdklog.WithWriter(cmd.ErrOrStderr()))
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "endpoint settings file (yaml, json, toml or env)")
	root.PersistentFlags().StringVar(&g.env, "env", string(entities.EnvironmentProd), "environment: dev or prod")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "overall request timeout")

	root.AddCommand(
		newVerifyCmd(g),
		newAvailabilityCmd(g),
		newSchemaCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

func addCredentialFlags(cmd *cobra.Command, f *credentialFlags) {
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "SDK API key")
	cmd.Flags().StringVar(&f.accessToken, "access-token", "", "central access token")
	cmd.Flags().StringVar(&f.orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&f.domain, "domain", "", "origin to present to the backend")
}

func newClient(g *globalFlags, f credentialFlags) (*entitlement.Client, error) {
	settings, err := config.LoadSettings(g.configPath)
	if err != nil {
		return nil, err
	}
	endpoints, err := settings.Endpoints(entities.Environment(g.env))
	if err != nil {
		return nil, err
	}
	return entitlement.NewClient(web.NewHTTPAdapter(), endpoints.BackendURL,
		entitlement.WithLogger(slog.Default()),
		entitlement.WithDomain(f.domain),
	), nil
}

func newVerifyCmd(g *globalFlags) *cobra.Command {
	f := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify credentials and print the organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := f.credentials()
			if err != nil {
				return err
			}
			client, err := newClient(g, *f)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			verification, err := client.Verify(ctx, creds)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), verification)
		},
	}
	addCredentialFlags(cmd, f)
	return cmd
}

type availabilityReport struct {
	Organization  *entities.Organization    `json:"organization"`
	OrgStatus     *entities.OrgStatus       `json:"orgStatus"`
	Subscriptions entities.SubscriptionList `json:"subscriptionList"`
	Availability  entities.Availability     `json:"availability"`
}

func newAvailabilityCmd(g *globalFlags) *cobra.Command {
	f := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Resolve entitlement and report whether a cardio test may start",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := f.credentials()
			if err != nil {
				return err
			}
			client, err := newClient(g, *f)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			snap, err := entitlement.NewResolver(client).Resolve(ctx, creds)
			if err != nil {
				return err
			}
			verdict := policy.NewEvaluator(policy.WithLogger(slog.Default())).
				Check(snap.Organization, snap.Status, snap.Subscriptions)
			return writeJSON(cmd.OutOrStdout(), availabilityReport{
				Organization:  snap.Organization,
				OrgStatus:     snap.Status,
				Subscriptions: snap.Subscriptions,
				Availability:  verdict,
			})
		},
	}
	addCredentialFlags(cmd, f)
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [name]",
		Short:     "Print a JSON schema",
		Long:      fmt.Sprintf("Print one of the SDK JSON schemas: %v.", schema.Names()),
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: schema.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := schema.NameConfig
			if len(args) == 1 {
				name = args[0]
			}
			raw, err := schema.Named(name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an initializer configuration file",
		Long:  "Validate a JSON initializer object against the config schema and the SDK's own rules. Use - for stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if _, err := cardio.ValidateJSON(raw); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cardioctl %s\n", Version)
			if GitCommit != "unknown" {
				fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", GitCommit)
			}
		},
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
