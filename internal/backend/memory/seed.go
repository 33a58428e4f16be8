// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/school-site/internal/backend"
	"github.com/olegiv/school-site/internal/model"
)

// Demo mode credentials
const (
	DemoAdminEmail    = "admin@school.example"
	DemoAdminPassword = "demo1234demo"
	DemoAdminName     = "Demo Admin"

	DemoMemberEmail    = "parent@school.example"
	DemoMemberPassword = "demo1234demo"
	DemoMemberName     = "Demo Parent"
)

// RoleAdmin is the user_roles value granting administrator access.
const RoleAdmin = "admin"

func ptr(s string) *string { return &s }

// SeedDemo fills b with demo accounts and content. Event dates are relative
// to now so the homepage always shows upcoming events.
func SeedDemo(b *Backend, now time.Time) error {
	admin, err := b.AddUser(DemoAdminEmail, DemoAdminPassword, DemoAdminName)
	if err != nil {
		return fmt.Errorf("seeding demo admin: %w", err)
	}
	if err := b.SetRole(admin.ID, RoleAdmin); err != nil {
		return fmt.Errorf("seeding admin role: %w", err)
	}
	if _, err := b.AddUser(DemoMemberEmail, DemoMemberPassword, DemoMemberName); err != nil {
		return fmt.Errorf("seeding demo member: %w", err)
	}

	day := func(offset int) model.Date { return model.NewDate(now.AddDate(0, 0, offset)) }
	events := []model.Event{
		{ID: uuid.NewString(), Title: "Annual Sports Day", Date: day(7), Time: ptr("09:00:00"),
			Location: ptr("Main Ground"), Featured: true,
			Description: ptr("Track and field events, team games and the inter-house relay final.")},
		{ID: uuid.NewString(), Title: "Science Exhibition", Date: day(14), Time: ptr("10:30:00"),
			Location: ptr("Auditorium"),
			Description: ptr("Students of classes 6 to 12 present their working models and research projects.")},
		{ID: uuid.NewString(), Title: "Parent-Teacher Meeting", Date: day(21), Time: ptr("08:30:00"),
			Location: ptr("Classrooms"),
			Description: ptr("Term progress review with class teachers.")},
		{ID: uuid.NewString(), Title: "Annual Day Celebration", Date: day(45), Time: ptr("17:00:00"),
			Location: ptr("Auditorium"), Featured: true,
			Description: ptr("Cultural programme, prize distribution and the director's address.")},
	}
	for _, e := range events {
		if err := b.Insert(backend.TableEvents, e); err != nil {
			return err
		}
	}

	year := now.Year()
	achievements := []model.Achievement{
		{ID: uuid.NewString(), Title: "100% Board Results", ClassLevel: model.ClassLevelBoth, Year: year - 1,
			Featured: true, Description: ptr("Every student passed the board examinations with first division.")},
		{ID: uuid.NewString(), Title: "District Science Olympiad Winners", ClassLevel: model.ClassLevel10, Year: year - 1,
			Description: ptr("Gold and silver medals at the district olympiad.")},
		{ID: uuid.NewString(), Title: "State Topper in Mathematics", ClassLevel: model.ClassLevel12, Year: year - 2,
			Featured: true},
		{ID: uuid.NewString(), Title: "Inter-School Debate Champions", ClassLevel: model.ClassLevel10, Year: year - 3},
		{ID: uuid.NewString(), Title: "Best Eco Club Award", ClassLevel: model.ClassLevelBoth, Year: year - 4},
	}
	for _, a := range achievements {
		if err := b.Insert(backend.TableAchievements, a); err != nil {
			return err
		}
	}

	staff := []model.DirectorProfile{
		{ID: uuid.NewString(), Name: "Dr. Meera Sharma", Position: "Director", IsDirector: true,
			Qualifications: ptr("Ph.D. Education, M.Sc. Physics")},
		{ID: uuid.NewString(), Name: "Rajesh Kumar", Position: "Principal"},
	}
	for _, s := range staff {
		if err := b.Insert(backend.TableStaff, s); err != nil {
			return err
		}
	}
	return nil
}
