package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/policy"
)

// VisibleScreening is a screening together with how much of it the caller
// may see.
type VisibleScreening struct {
	Screening model.Screening
	Access    policy.Access
}

// ScreeningCriteria filters a screening search. Text fields are matched
// token by token; From and To bound the start date inclusively.
type ScreeningCriteria struct {
	Title string
	Cast  string
	Genre string
	From  *time.Time
	To    *time.Time
}

// Get returns one screening with the view level the caller is entitled to.
func (s *ScreeningService) Get(ctx context.Context, id uint64) (*VisibleScreening, error) {
	u, err := s.d.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	sc, err := s.d.Screenings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.d.Programs.GetByID(ctx, sc.ProgramID)
	if err != nil {
		return nil, err
	}
	access := policy.ScreeningAccess(u, p, sc)
	if access == policy.AccessNone {
		return nil, forbidden("screening %d is not visible to %s", id, u.Username)
	}
	return &VisibleScreening{Screening: *sc, Access: access}, nil
}

// List returns the screenings of a program the caller may see, ordered by
// start time with unscheduled ones last.
func (s *ScreeningService) List(ctx context.Context, programID uint64) ([]VisibleScreening, error) {
	out, err := s.visible(ctx, programID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Screening.StartTime, out[j].Screening.StartTime
		switch {
		case a == nil && b == nil:
			return out[i].Screening.ID < out[j].Screening.ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].Screening.ID < out[j].Screening.ID
	})
	return out, nil
}

// Search filters the visible screenings of a program and orders them by
// genre, then title, case-insensitively with blanks last.
func (s *ScreeningService) Search(ctx context.Context, programID uint64, c ScreeningCriteria) ([]VisibleScreening, error) {
	if c.From != nil && c.To != nil && c.To.Before(*c.From) {
		return nil, invalid("search range ends before it starts")
	}
	all, err := s.visible(ctx, programID)
	if err != nil {
		return nil, err
	}
	title, cast, genre := tokens(c.Title), tokens(c.Cast), tokens(c.Genre)

	out := make([]VisibleScreening, 0, len(all))
	for _, v := range all {
		f := v.Screening.Film
		if !matchAll(f.Title, title) || !matchAll(f.Cast, cast) || !matchAll(f.Genres, genre) {
			continue
		}
		if !inDateRange(f.StartTime, c.From, c.To) {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Screening.Film, out[j].Screening.Film
		if n := compareBlankLast(a.Genres, b.Genres); n != 0 {
			return n < 0
		}
		if n := compareBlankLast(a.Title, b.Title); n != 0 {
			return n < 0
		}
		return out[i].Screening.ID < out[j].Screening.ID
	})
	return out, nil
}

func (s *ScreeningService) visible(ctx context.Context, programID uint64) ([]VisibleScreening, error) {
	u, err := s.d.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.d.Programs.GetByID(ctx, programID)
	if err != nil {
		return nil, err
	}
	list, err := s.d.Screenings.ListByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	out := make([]VisibleScreening, 0, len(list))
	for i := range list {
		if access := policy.ScreeningAccess(u, p, &list[i]); access != policy.AccessNone {
			out = append(out, VisibleScreening{Screening: list[i], Access: access})
		}
	}
	return out, nil
}

// inDateRange compares calendar dates in UTC. A screening without a start
// time only matches an open range.
func inDateRange(start, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if start == nil {
		return false
	}
	d := dateOf(*start)
	if from != nil && d.Before(dateOf(*from)) {
		return false
	}
	if to != nil && d.After(dateOf(*to)) {
		return false
	}
	return true
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func compareBlankLast(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
