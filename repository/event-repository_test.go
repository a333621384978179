package repository

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestFormatDates(t *testing.T) {
	cases := []struct {
		name     string
		dates    pq.StringArray
		expected string
	}{
		{"no dates", pq.StringArray{}, ""},
		{"single day", pq.StringArray{"2026-09-01"}, "1 September 2026"},
		{"range within a year", pq.StringArray{"2026-09-01", "2026-09-03"}, "1 September to 3 September 2026"},
		{"range across years", pq.StringArray{"2026-12-30", "2027-01-02"}, "30 December 2026 to 2 January 2027"},
		{"listed days", pq.StringArray{"2026-09-01", "2026-09-08", "2026-09-15"},
			"Day 1: 1 September 2026, Day 2: 8 September 2026, Day 3: 15 September 2026"},
		{"unparseable dates are skipped", pq.StringArray{"soon", "2026-09-01"}, "1 September 2026"},
	}
	for _, c := range cases {
		event := &Event{Dates: c.dates}
		assert.Equal(t, c.expected, event.FormatDates(), c.name)
	}
}

func TestResolveAmount(t *testing.T) {
	artAmount := 100.0
	freeAmount := 0.0
	event := &Event{
		IsPaid: true,
		Amount: 500,
		Categories: []*EventCategory{
			{Name: "Art", Amount: &artAmount},
			{Name: "Music", Amount: &freeAmount},
			{Name: "Sculpture"},
		},
	}

	// a listed category with its own fee wins over the flat amount
	assert.Equal(t, 100.0, event.ResolveAmount("Art"))
	// an explicit zero makes the category free even on a paid event
	assert.Equal(t, 0.0, event.ResolveAmount("Music"))
	// a category without its own fee falls back to the flat amount
	assert.Equal(t, 500.0, event.ResolveAmount("Sculpture"))
	assert.Equal(t, 500.0, event.ResolveAmount("Unlisted"))

	free := &Event{IsPaid: false, Amount: 500}
	assert.Equal(t, 0.0, free.ResolveAmount("Art"))
}

func TestCategoryNames(t *testing.T) {
	event := &Event{Categories: []*EventCategory{{Name: "Art"}, {Name: "Music"}}}
	assert.Equal(t, []string{"Art", "Music"}, event.CategoryNames())
	assert.Empty(t, (&Event{}).CategoryNames())
}
