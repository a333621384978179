package service

import (
	"regexp"
	"strings"

	"eventdesk/app_error"
	"eventdesk/repository"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Submission is the registrant-provided form data. It travels with the
// client through the payment round-trip, so it is re-validated on every
// entry point.
type Submission struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	School   string `json:"school" binding:"required"`
	Note     string `json:"note"`
	Category string `json:"category"`
}

// NormalizedEmail is the uniqueness key component: trimmed and lowercased.
func (s *Submission) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(s.Email))
}

// Validate checks required fields and, when the event declares categories,
// that the submitted category is one of them.
func (s *Submission) Validate(event *repository.Event) error {
	if err := s.validateFields(); err != nil {
		return err
	}
	if len(event.Categories) > 0 {
		names := event.CategoryNames()
		found := false
		for _, name := range names {
			if name == s.Category {
				found = true
				break
			}
		}
		if !found {
			return app_error.NewValidationError("category", "please pick one of: "+strings.Join(names, ", "))
		}
	}
	return nil
}

// validateFields checks the registrant fields alone; the reconciliation
// path runs it before the event is even known.
func (s *Submission) validateFields() error {
	if strings.TrimSpace(s.Name) == "" {
		return app_error.NewValidationError("name", "name is required")
	}
	if strings.TrimSpace(s.Email) == "" {
		return app_error.NewValidationError("email", "email is required")
	}
	if !emailRegex.MatchString(strings.TrimSpace(s.Email)) {
		return app_error.NewValidationError("email", "email address is not valid")
	}
	if strings.TrimSpace(s.Phone) == "" {
		return app_error.NewValidationError("phone", "phone number is required")
	}
	if strings.TrimSpace(s.School) == "" {
		return app_error.NewValidationError("school", "school is required")
	}
	return nil
}

func (s *Submission) toRegistration(registrationId string, eventId int) *repository.Registration {
	registration := &repository.Registration{
		Id:      registrationId,
		EventId: eventId,
		Name:    strings.TrimSpace(s.Name),
		Email:   s.NormalizedEmail(),
		Phone:   strings.TrimSpace(s.Phone),
		School:  strings.TrimSpace(s.School),
	}
	if note := strings.TrimSpace(s.Note); note != "" {
		registration.Note = &note
	}
	if s.Category != "" {
		category := s.Category
		registration.Category = &category
	}
	return registration
}
