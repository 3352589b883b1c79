package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/specimen-gateway/internal/config"
	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository/postgres"
	"github.com/jwalitptl/specimen-gateway/internal/service/draft"
)

var (
	configPath  string
	sessionPath string
	verbose     bool
)

func newRootCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specimenctl",
		Short: "Search, view and create specimen occurrences",
		Long: `specimenctl talks to the specimen backend with the same query, validation
and presentation rules as the HTTP gateway.`,
		SilenceUsage: true,
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("SPECIMEN_CONFIG"), "Config file (defaults to ./config.yaml)")
	cmd.PersistentFlags().StringVar(&sessionPath, "session-file", "", "Where the login token is kept")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log backend calls to stderr")
	cmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newSearchCmd(),
		newShowCmd(),
		newDraftCmd(),
		newAuditCmd(),
	)
	return cmd
}

func newLoginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("SPECIMEN_PASSWORD")
			if password == "" {
				return errors.New("set SPECIMEN_PASSWORD")
			}
			a, err := newApp(configPath, sessionPath, verbose)
			if err != nil {
				return err
			}
			sess, err := a.auth.Login(a.context(cmd.Context()), model.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := a.sessions.Save(sess.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", sess.UserName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, sessionPath, verbose)
			if err != nil {
				return err
			}
			if sess, err := a.session(); err == nil {
				a.auth.Logout(a.context(cmd.Context()), sess)
			}
			return a.sessions.Clear()
		},
	}
}

func newSearchCmd() *cobra.Command {
	var (
		page, perPage int
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:     "search key=value...",
		Short:   "Search occurrences",
		Example: "  specimenctl search species=Parnassius project_id=4 --per-page 20",
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := parseAssignments(args)
			if err != nil {
				return err
			}
			a, err := newApp(configPath, sessionPath, verbose)
			if err != nil {
				return err
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			result, err := a.occurrence.Search(a.context(cmd.Context()), sess, criteria, page, perPage)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), model.NewSearchResponse(result))
			}
			return printSearch(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Results per page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw result page")
	return cmd
}

func newShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid occurrence ID %q", args[0])
			}
			a, err := newApp(configPath, sessionPath, verbose)
			if err != nil {
				return err
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			agg, err := a.occurrence.Get(a.context(cmd.Context()), sess, id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), agg)
			}
			return printView(cmd.OutOrStdout(), a.renderer.Render(agg))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the occurrence aggregate")
	return cmd
}

func newDraftCmd() *cobra.Command {
	var (
		fromDefaults bool
		create       bool
	)
	cmd := &cobra.Command{
		Use:   "draft path=value...",
		Short: "Build an occurrence draft and optionally create it",
		Long: `Fields are addressed by dotted paths, e.g. classification.species=Apis
or observation.observed_at=2024-05-01T10:00. An empty value clears a field.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := parseEdits(args)
			if err != nil {
				return err
			}
			a, err := newApp(configPath, sessionPath, verbose)
			if err != nil {
				return err
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			ctx := a.context(cmd.Context())

			var d model.OccurrenceDraft
			if fromDefaults {
				if d, err = a.reference.Defaults(ctx, sess); err != nil {
					return err
				}
			}
			if d, err = draft.ApplyEdits(d, edits); err != nil {
				return err
			}

			if !create {
				return writeJSON(cmd.OutOrStdout(), d)
			}
			id, err := a.occurrence.Create(ctx, sess, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created occurrence %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromDefaults, "defaults", false, "Start from the backend's create-form defaults")
	cmd.Flags().BoolVar(&create, "create", false, "Submit the draft instead of printing it")
	return cmd
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail stored by the worker",
	}

	var (
		action string
		limit  int
		asJSON bool
	)
	recent := &cobra.Command{
		Use:   "recent",
		Short: "List the newest audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			events, err := postgres.NewAuditRepository(db).Recent(cmd.Context(), action, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), events)
			}
			return printAudit(cmd.OutOrStdout(), events)
		},
	}
	recent.Flags().StringVar(&action, "action", "", "Only this action, e.g. search or create")
	recent.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events")
	recent.Flags().BoolVar(&asJSON, "json", false, "Print events as JSON")

	cmd.AddCommand(recent)
	return cmd
}

// parseAssignments reads key=value arguments. Later keys win.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

// parseEdits reads path=value arguments in order.
func parseEdits(args []string) ([]model.DraftEdit, error) {
	edits := make([]model.DraftEdit, 0, len(args))
	for _, arg := range args {
		path, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("expected path=value, got %q", arg)
		}
		edits = append(edits, model.DraftEdit{Path: draft.ParsePath(path), Value: value})
	}
	return edits, nil
}
