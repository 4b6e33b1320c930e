package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/pkg/configuration"
	"github.com/iota-uz/people-sdk/pkg/policy"
)

func newPolicyService() *policy.Service {
	return policy.NewService(
		persistence.NewDirectoryReadRepository(),
		configuration.Use().Policy.MaxTraversalDepth,
	)
}

func newAuthorizeCmd() *cobra.Command {
	var (
		viewer  string
		subject string
		org     string
	)

	cmd := &cobra.Command{
		Use:   "authorize <action>",
		Short: "Evaluate an action decision for a viewer/subject pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := policy.Action(args[0])
			if !action.Valid() {
				return fmt.Errorf("unknown action %q, expected one of %v", args[0], policy.Actions())
			}
			viewerID, err := uuid.Parse(viewer)
			if err != nil {
				return fmt.Errorf("invalid --viewer: %w", err)
			}
			subjectID, err := uuid.Parse(subject)
			if err != nil {
				return fmt.Errorf("invalid --subject: %w", err)
			}
			var orgID *uuid.UUID
			if org != "" {
				parsed, err := uuid.Parse(org)
				if err != nil {
					return fmt.Errorf("invalid --org: %w", err)
				}
				orgID = &parsed
			}

			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			ctx := poolContext(cmd.Context(), pool)

			allowed, err := newPolicyService().Authorize(ctx, viewerID, subjectID, orgID, action)
			if err != nil {
				return err
			}
			if allowed {
				fmt.Println("allow")
			} else {
				fmt.Println("deny")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&viewer, "viewer", "", "viewer person id")
	cmd.Flags().StringVar(&subject, "subject", "", "subject person id")
	cmd.Flags().StringVar(&org, "org", "", "organization id for scoped actions")
	_ = cmd.MarkFlagRequired("viewer")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newManagersCmd() *cobra.Command {
	return newChainCmd("managers", "Print the managerial chain of a person, nearest first",
		func(svc *policy.Service) chainFunc { return svc.ManagersOf })
}

func newReportsCmd() *cobra.Command {
	return newChainCmd("reports", "Print everyone who reports to a person, direct reports first",
		func(svc *policy.Service) chainFunc { return svc.ReportsOf })
}

type chainFunc = func(ctx context.Context, personID, orgID uuid.UUID) ([]policy.Entry, error)

func newChainCmd(use, short string, resolve func(*policy.Service) chainFunc) *cobra.Command {
	var (
		person string
		org    string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			personID, err := uuid.Parse(person)
			if err != nil {
				return fmt.Errorf("invalid --person: %w", err)
			}
			orgID, err := uuid.Parse(org)
			if err != nil {
				return fmt.Errorf("invalid --org: %w", err)
			}

			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			ctx := poolContext(cmd.Context(), pool)

			entries, err := resolve(newPolicyService())(ctx, personID, orgID)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.Title != "" {
					fmt.Printf("%d\t%s\t%s\t%s\n", e.Level, e.Person.ID(), e.Person.FullName(), e.Title)
					continue
				}
				fmt.Printf("%d\t%s\t%s\n", e.Level, e.Person.ID(), e.Person.FullName())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "person id")
	cmd.Flags().StringVar(&org, "org", "", "organization id")
	_ = cmd.MarkFlagRequired("person")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
