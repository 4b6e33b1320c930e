package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iota-uz/people-sdk/modules/directory/infrastructure/persistence"
	"github.com/iota-uz/people-sdk/modules/directory/services"
	"github.com/iota-uz/people-sdk/pkg/configuration"
	"github.com/iota-uz/people-sdk/pkg/eventbus"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo company with a small managerial hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			return seed(poolContext(cmd.Context(), pool))
		},
	}
}

func seed(ctx context.Context) error {
	peopleSvc := services.NewPeopleService(persistence.NewPersonRepository())
	orgsSvc := services.NewOrganizationsService(persistence.NewOrganizationRepository())
	employmentSvc := services.NewEmploymentService(
		peopleSvc,
		orgsSvc,
		persistence.NewTeammateRepository(),
		persistence.NewTenureRepository(),
		eventbus.NewEventPublisher(configuration.Use().Logger()),
	)

	company, err := orgsSvc.Create(ctx, &services.OrganizationCreateDTO{
		Kind: "company",
		Name: "Acme Corp",
	})
	if err != nil {
		return err
	}
	companyID := company.ID()
	engineering, err := orgsSvc.Create(ctx, &services.OrganizationCreateDTO{
		Kind:     "department",
		Name:     "Engineering",
		ParentID: &companyID,
	})
	if err != nil {
		return err
	}
	engineeringID := engineering.ID()
	if _, err := orgsSvc.Create(ctx, &services.OrganizationCreateDTO{
		Kind:     "team",
		Name:     "Platform",
		ParentID: &engineeringID,
	}); err != nil {
		return err
	}

	startedAt := time.Now().UTC().AddDate(-1, 0, 0)
	employ := func(first, last, title string, manager *uuid.UUID) (uuid.UUID, error) {
		p, err := peopleSvc.Create(ctx, &services.PersonCreateDTO{
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s@acme.example", first, last),
		})
		if err != nil {
			return uuid.Nil, err
		}
		opened, err := employmentSvc.Employ(ctx, &services.EmployDTO{
			PersonID:          p.ID(),
			OrganizationID:    company.ID(),
			CompanyID:         company.ID(),
			ManagerTeammateID: manager,
			Title:             title,
			StartedAt:         startedAt,
		})
		if err != nil {
			return uuid.Nil, err
		}
		return opened.TeammateID(), nil
	}

	director, err := employ("dana", "director", "Director of Engineering", nil)
	if err != nil {
		return err
	}
	lead, err := employ("liam", "lead", "Engineering Lead", &director)
	if err != nil {
		return err
	}
	if _, err := employ("wendy", "worker", "Engineer", &lead); err != nil {
		return err
	}
	hr, err := employ("harriet", "hr", "People Operations", nil)
	if err != nil {
		return err
	}
	if err := employmentSvc.SetFlags(ctx, hr, true, true, true); err != nil {
		return err
	}

	fmt.Println("seeded company", company.ID())
	return nil
}
