package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-programs/internal/model"
	"github.com/iliyamo/cinema-programs/internal/queue"
	"github.com/iliyamo/cinema-programs/internal/service"
)

var allStates = []model.ProgramState{
	model.ProgramCreated, model.ProgramSubmission, model.ProgramAssignment, model.ProgramReview,
	model.ProgramScheduling, model.ProgramFinalPublication, model.ProgramDecision, model.ProgramAnnounced,
}

func TestCreateProgramEnrollsProgrammers(t *testing.T) {
	h := newHarness(t)

	p, err := h.programs.Create(as("submitter"), programInput("Autumn"))
	require.NoError(t, err)

	assert.Equal(t, model.ProgramCreated, p.State)
	assert.Equal(t, "submitter", p.Creator.Username)
	assert.Equal(t, []string{"prog2", "user1"}, p.Programmers.Usernames())
	assert.Equal(t, 0, p.Staff.Len())
	assert.False(t, p.CreationDate.IsZero())
	assert.Equal(t, []queue.EventType{queue.ProgramCreated}, h.events.types())
}

func TestCreateProgramByVisitorIsForbidden(t *testing.T) {
	h := newHarness(t)
	_, err := h.programs.Create(as(""), programInput("Nope"))
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestCreateProgramValidatesInput(t *testing.T) {
	h := newHarness(t)

	in := programInput("  ")
	_, err := h.programs.Create(as("user1"), in)
	assert.ErrorIs(t, err, service.ErrValidation)

	in = programInput("Backwards")
	in.StartDate, in.EndDate = day(20), day(2)
	_, err = h.programs.Create(as("user1"), in)
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestChangeStateOnlyToSuccessor(t *testing.T) {
	for i, from := range allStates {
		t.Run(string(from), func(t *testing.T) {
			h := newHarness(t)
			p := h.newProgram(from)

			for j, target := range allStates {
				if j == i+1 {
					continue
				}
				_, err := h.programs.ChangeState(as("user1"), p.ID, target)
				assert.ErrorIs(t, err, service.ErrInvalidTransition, "%s -> %s", from, target)
			}

			got, err := h.programs.Get(as("user1"), p.ID)
			require.NoError(t, err)
			assert.Equal(t, from, got.State, "failed transitions must not change the stage")

			if next, ok := from.Next(); ok {
				got, err = h.programs.ChangeState(as("user1"), p.ID, next)
				require.NoError(t, err)
				assert.Equal(t, next, got.State)
			}
		})
	}
}

func TestChangeStateRequiresProgrammerMember(t *testing.T) {
	h := newHarness(t)
	p := h.newProgram(model.ProgramCreated)
	h.addUser("latecomer", model.RoleProgrammer)

	for _, who := range []string{"", "plain", "staff1", "submitter", "latecomer"} {
		_, err := h.programs.ChangeState(as(who), p.ID, model.ProgramSubmission)
		assert.ErrorIs(t, err, service.ErrForbidden, who)
	}

	_, err := h.programs.ChangeState(as("prog2"), p.ID, model.ProgramSubmission)
	assert.NoError(t, err)
}

func TestChangeStateUnknownProgram(t *testing.T) {
	h := newHarness(t)
	_, err := h.programs.ChangeState(as("user1"), 999, model.ProgramSubmission)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateAndDeleteRequireProgrammer(t *testing.T) {
	h := newHarness(t)
	p := h.newProgram(model.ProgramReview)

	_, err := h.programs.Update(as("staff1"), p.ID, programInput("Renamed"))
	assert.ErrorIs(t, err, service.ErrForbidden)

	got, err := h.programs.Update(as("user1"), p.ID, programInput("Renamed"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, model.ProgramReview, got.State)

	assert.ErrorIs(t, h.programs.Delete(as("submitter"), p.ID), service.ErrForbidden)
	require.NoError(t, h.programs.Delete(as("user1"), p.ID))

	_, err = h.programs.Get(as("user1"), p.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteCascadesToScreenings(t *testing.T) {
	h := newHarness(t)
	p := h.newProgram(model.ProgramSubmission)
	sc, err := h.screenings.Create(as("submitter"), p.ID, film("Movie A", 90, nil, nil))
	require.NoError(t, err)

	require.NoError(t, h.programs.Delete(as("user1"), p.ID))

	_, err = h.screenings.Get(as("submitter"), sc.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAddMembersIsIdempotent(t *testing.T) {
	h := newHarness(t)
	p := h.newProgram(model.ProgramCreated)

	for i := 0; i < 2; i++ {
		got, err := h.programs.AddStaff(as("user1"), p.ID, "staff1")
		require.NoError(t, err)
		assert.Equal(t, []string{"staff1"}, got.Staff.Usernames())
	}
	got, err := h.programs.AddProgrammer(as("user1"), p.ID, "user1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Programmers.Len())

	_, err = h.programs.AddStaff(as("user1"), p.ID, "ghost")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = h.programs.AddStaff(as("staff1"), p.ID, "staff2")
	assert.ErrorIs(t, err, service.ErrForbidden)

	roster := 0
	for _, typ := range h.events.types() {
		if typ == queue.ProgramRosterChanged {
			roster++
		}
	}
	assert.Equal(t, 1, roster, "re-adding publishes nothing")
}

func TestAddedProgrammerGainsControl(t *testing.T) {
	h := newHarness(t)
	p := h.newProgram(model.ProgramCreated)
	h.addUser("latecomer", model.RoleProgrammer)

	_, err := h.programs.AddProgrammer(as("user1"), p.ID, "latecomer")
	require.NoError(t, err)
	_, err = h.programs.ChangeState(as("latecomer"), p.ID, model.ProgramSubmission)
	assert.NoError(t, err)
}

func TestVisitorCannotSeeUnannouncedProgram(t *testing.T) {
	h := newHarness(t)
	hidden := h.newProgram(model.ProgramScheduling)
	public := h.newProgram(model.ProgramAnnounced)

	_, err := h.programs.Get(as(""), hidden.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	got, err := h.programs.Get(as(""), public.ID)
	require.NoError(t, err)
	assert.Equal(t, public.ID, got.ID)

	list, err := h.programs.List(as(""))
	require.NoError(t, err)
	assert.Equal(t, []uint64{public.ID}, ids(list))

	list, err = h.programs.List(as("plain"))
	require.NoError(t, err)
	assert.Equal(t, []uint64{public.ID}, ids(list))
}

func TestListProgramsPerRole(t *testing.T) {
	h := newEmptyHarness(t)
	h.addUser("submitter", model.RoleSubmitter)
	h.addUser("staff1", model.RoleStaff)
	h.addUser("staff2", model.RoleStaff)

	// Created before any programmer exists, so its roster stays empty.
	orphan, err := h.programs.Create(as("submitter"), programInput("Orphan"))
	require.NoError(t, err)
	require.Equal(t, 0, orphan.Programmers.Len())

	h.addUser("user1", model.RoleProgrammer)
	h.addUser("prog2", model.RoleProgrammer)
	announcedP := h.newProgram(model.ProgramAnnounced)
	staffed := h.newProgram(model.ProgramCreated)
	_, err = h.programs.AddStaff(as("user1"), staffed.ID, "staff1")
	require.NoError(t, err)
	other := h.newProgram(model.ProgramCreated)

	cases := map[string][]uint64{
		"":          {announcedP.ID},
		"submitter": {announcedP.ID, orphan.ID},
		"staff1":    {announcedP.ID, staffed.ID},
		"staff2":    {announcedP.ID},
		"user1":     {announcedP.ID, staffed.ID, other.ID, orphan.ID},
	}
	for who, want := range cases {
		list, err := h.programs.List(as(who))
		require.NoError(t, err)
		assert.Equal(t, want, ids(list), who)
	}
}

func TestStaffSeesProgramsWhereTheyHandle(t *testing.T) {
	h := newHarness(t)
	p := h.newProgram(model.ProgramSubmission)
	sc := submitted(t, h, p.ID, "Movie A")
	h.advance(p.ID, model.ProgramAssignment)
	_, err := h.screenings.AssignHandler(as("user1"), sc.ID, "staff2")
	require.NoError(t, err)

	list, err := h.programs.List(as("staff2"))
	require.NoError(t, err)
	assert.Equal(t, []uint64{p.ID}, ids(list))
}

func TestSearchProgramsByNameAndState(t *testing.T) {
	h := newHarness(t)
	summer := h.newProgram(model.ProgramAnnounced)
	_, err := h.programs.Update(as("user1"), summer.ID, programInput("Summer Nights Festival"))
	require.NoError(t, err)
	winter, err := h.programs.Create(as("user1"), programInput("Winter Festival"))
	require.NoError(t, err)

	got, err := h.programs.Search(as("user1"), service.ProgramCriteria{Name: "festival NIGHTS"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{summer.ID}, ids(got))

	got, err = h.programs.Search(as("user1"), service.ProgramCriteria{Name: "festival", State: model.ProgramCreated})
	require.NoError(t, err)
	assert.Equal(t, []uint64{winter.ID}, ids(got))

	got, err = h.programs.Search(as(""), service.ProgramCriteria{Name: "winter"})
	require.NoError(t, err)
	assert.Empty(t, got, "search never widens visibility")

	_, err = h.programs.Search(as("user1"), service.ProgramCriteria{State: "ARCHIVED"})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func ids(list []model.Program) []uint64 {
	out := make([]uint64, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}
