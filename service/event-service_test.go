package service

import (
	"context"
	"testing"

	"eventdesk/app_error"
	"eventdesk/repository"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func newEventService() *EventService {
	return NewEventService(db, &AuditService{}, NewCacheInvalidator(nil))
}

func adminUser(t *testing.T, email string) *repository.User {
	t.Helper()
	user := &repository.User{Email: email, Permissions: pq.StringArray{string(repository.PermissionAdmin)}}
	assert.Nil(t, db.Create(user).Error)
	return user
}

func TestValidateEvent(t *testing.T) {
	negative := -5.0
	cases := map[string]*repository.Event{
		"blank title":     {Title: " ", Dates: pq.StringArray{"2026-09-01"}, Venue: "Hall"},
		"no dates":        {Title: "Fair", Venue: "Hall"},
		"malformed date":  {Title: "Fair", Dates: pq.StringArray{"01-09-2026"}, Venue: "Hall"},
		"negative amount": {Title: "Fair", Dates: pq.StringArray{"2026-09-01"}, Venue: "Hall", IsPaid: true, Amount: -1},
		"blank category":  {Title: "Fair", Dates: pq.StringArray{"2026-09-01"}, Venue: "Hall", Categories: []*repository.EventCategory{{Name: " "}}},
		"negative category amount": {
			Title: "Fair", Dates: pq.StringArray{"2026-09-01"}, Venue: "Hall",
			Categories: []*repository.EventCategory{{Name: "Art", Amount: &negative}},
		},
	}
	for name, event := range cases {
		err := validateEvent(event)
		var validationErr *app_error.ValidationError
		assert.ErrorAs(t, err, &validationErr, name)
	}

	assert.Nil(t, validateEvent(&repository.Event{Title: "Fair", Dates: pq.StringArray{"2026-09-01"}, Venue: "Hall"}))
}

func TestEventOwnershipGuardsMutations(t *testing.T) {
	service := newEventService()
	owner := adminUser(t, "owner@example.com")
	other := adminUser(t, "other@example.com")
	superadmin := &repository.User{Email: "root@example.com", Permissions: pq.StringArray{string(repository.PermissionSuperAdmin)}}
	assert.Nil(t, db.Create(superadmin).Error)

	event, err := service.CreateEvent(owner, &repository.Event{
		Title:   "Drama Night",
		Dates:   pq.StringArray{"2026-09-15"},
		Venue:   "Stage",
		SendPdf: true,
	})
	assert.Nil(t, err)
	assert.Equal(t, owner.Id, event.CreatedBy)

	// another admin cannot touch it
	var forbiddenErr *app_error.ForbiddenError
	err = service.DeleteEvent(other, event.Id)
	assert.ErrorAs(t, err, &forbiddenErr)

	// the owner and any superadmin can
	_, err = service.UpdateEvent(owner, event.Id, &repository.Event{Title: "Drama Night 2026", SendPdf: true}, nil)
	assert.Nil(t, err)
	assert.Nil(t, service.DeleteEvent(superadmin, event.Id))

	_, err = service.GetEventById(event.Id)
	var notFoundErr *app_error.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)

	assert.Nil(t, service.RestoreEvent(event.Id))
	restored, err := service.GetEventById(event.Id)
	assert.Nil(t, err)
	assert.Equal(t, "Drama Night 2026", restored.Title)
}

func TestUpdateEventReplacesCategories(t *testing.T) {
	service := newEventService()
	owner := adminUser(t, "categories@example.com")

	event, err := service.CreateEvent(owner, &repository.Event{
		Title:   "Art Fair",
		Dates:   pq.StringArray{"2026-09-20"},
		Venue:   "Gallery",
		SendPdf: true,
		Categories: []*repository.EventCategory{
			{Name: "Painting"},
			{Name: "Sketching"},
		},
	})
	assert.Nil(t, err)

	updated, err := service.UpdateEvent(owner, event.Id, &repository.Event{SendPdf: true}, []*repository.EventCategory{
		{Name: "Painting"},
		{Name: "Sculpture"},
		{Name: "Photography"},
	})
	assert.Nil(t, err)
	assert.Len(t, updated.Categories, 3)

	reloaded, err := service.GetEventById(event.Id)
	assert.Nil(t, err)
	assert.ElementsMatch(t, []string{"Painting", "Sculpture", "Photography"}, reloaded.CategoryNames())
}

func TestDashboardStats(t *testing.T) {
	dashboard := NewDashboardService(db)
	registrationService := newRegistrationService(&fakeMail{})
	event := freeEvent(t, "Dashboard Fixture")

	submission := validSubmission()
	submission.Email = "dashboard@example.com"
	_, err := registrationService.Admit(context.Background(), event.Id, submission)
	assert.Nil(t, err)

	stats, err := dashboard.GetStats()
	assert.Nil(t, err)
	assert.GreaterOrEqual(t, stats.TotalRegistrations, int64(1))
	assert.GreaterOrEqual(t, stats.TotalSchools, 1)

	var found *EventStats
	for _, es := range stats.Events {
		if es.Event.Id == event.Id {
			found = es
		}
	}
	assert.NotNil(t, found)
	assert.Equal(t, int64(1), found.Registrations)

	count, err := dashboard.CountForEvent(event.Id)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), count)
}
