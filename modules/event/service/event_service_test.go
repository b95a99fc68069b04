package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duet-api/core/config"
	"duet-api/core/constants"
	"duet-api/modules/event/entity"
	matchingEntity "duet-api/modules/matching/entity"
	userEntity "duet-api/modules/user/entity"
)

type memTx struct{}

func (memTx) Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type memEventRepo struct {
	events map[string]*entity.Event
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: map[string]*entity.Event{}}
}

func (f *memEventRepo) CreateTx(_ context.Context, _ *sqlx.Tx, event *entity.Event) error {
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *memEventRepo) GetByID(_ context.Context, id string) (*entity.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *memEventRepo) GetByIDTx(ctx context.Context, _ *sqlx.Tx, id string, _ bool) (*entity.Event, error) {
	return f.GetByID(ctx, id)
}

func (f *memEventRepo) UpdateTx(_ context.Context, _ *sqlx.Tx, event *entity.Event) error {
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *memEventRepo) SetReady(_ context.Context, id string, chatRoomID string) error {
	if e, ok := f.events[id]; ok {
		e.Status = entity.EventStatusReady
		e.ChatRoomID = &chatRoomID
	}
	return nil
}

func (f *memEventRepo) MarkReminderSent(_ context.Context, id string) error {
	if e, ok := f.events[id]; ok {
		e.ReminderSent = true
	}
	return nil
}

func (f *memEventRepo) GetOpenDeficitByType(_ context.Context, eventType entity.EventType) ([]entity.Event, error) {
	var out []entity.Event
	for _, e := range f.events {
		if e.EventType == eventType && e.Status == entity.EventStatusPendingJoin &&
			len(e.PendingPairMatchIDs) < e.RequiredPairCount {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *memEventRepo) GetRemindableInWindow(_ context.Context, start, end time.Time) ([]entity.Event, error) {
	var out []entity.Event
	for _, e := range f.events {
		if e.Status == entity.EventStatusReady && !e.ReminderSent &&
			!e.Date.Before(start) && e.Date.Before(end) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *memEventRepo) GetByParticipant(_ context.Context, userID uuid.UUID) ([]entity.Event, error) {
	var out []entity.Event
	for _, e := range f.events {
		if e.ParticipantUserIDs.Contains(userID.String()) {
			out = append(out, *e)
		}
	}
	return out, nil
}

type memParticipantRepo struct {
	participants map[string]*entity.EventParticipant
}

func newMemParticipantRepo() *memParticipantRepo {
	return &memParticipantRepo{participants: map[string]*entity.EventParticipant{}}
}

func (f *memParticipantRepo) Get(_ context.Context, id string) (*entity.EventParticipant, error) {
	p, ok := f.participants[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *memParticipantRepo) GetTx(ctx context.Context, _ *sqlx.Tx, id string, _ bool) (*entity.EventParticipant, error) {
	return f.Get(ctx, id)
}

func (f *memParticipantRepo) UpsertTx(_ context.Context, _ *sqlx.Tx, participant *entity.EventParticipant) error {
	cp := *participant
	f.participants[participant.ID] = &cp
	return nil
}

func (f *memParticipantRepo) ListByEvent(_ context.Context, eventID string) ([]entity.EventParticipant, error) {
	var out []entity.EventParticipant
	for _, p := range f.participants {
		if p.EventID == eventID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memPairRepo struct {
	pairs []*matchingEntity.PairMatch
}

func (f *memPairRepo) Create(_ context.Context, pair *matchingEntity.PairMatch) error {
	cp := *pair
	f.pairs = append(f.pairs, &cp)
	return nil
}

func (f *memPairRepo) GetByPairKey(_ context.Context, pairKey string) (*matchingEntity.PairMatch, error) {
	for _, p := range f.pairs {
		if p.PairKey == pairKey {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *memPairRepo) GetByID(_ context.Context, id string) (*matchingEntity.PairMatch, error) {
	for _, p := range f.pairs {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *memPairRepo) GetByIDTx(ctx context.Context, _ *sqlx.Tx, id string, _ bool) (*matchingEntity.PairMatch, error) {
	return f.GetByID(ctx, id)
}

func (f *memPairRepo) UpdateDerivedFields(_ context.Context, _ *matchingEntity.PairMatch) error {
	return nil
}

func (f *memPairRepo) GetQueuedByEventType(_ context.Context, eventType entity.EventType) ([]matchingEntity.PairMatch, error) {
	var out []matchingEntity.PairMatch
	for _, p := range f.pairs {
		if p.Status == matchingEntity.PairStatusActive &&
			p.QueueStatus == matchingEntity.QueueStatusQueued &&
			p.QueueEventType != nil && *p.QueueEventType == eventType {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *memPairRepo) GetActiveByUser(_ context.Context, userID uuid.UUID) ([]matchingEntity.PairMatch, error) {
	var out []matchingEntity.PairMatch
	for _, p := range f.pairs {
		if p.Status == matchingEntity.PairStatusActive && p.ContainsUser(userID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *memPairRepo) MarkInEventTx(_ context.Context, _ *sqlx.Tx, pairID string, eventID string) error {
	for _, p := range f.pairs {
		if p.ID == pairID {
			p.PendingEventID = &eventID
			p.QueueStatus = matchingEntity.QueueStatusInEvent
		}
	}
	return nil
}

func (f *memPairRepo) MarkSidelined(_ context.Context, pairID string) error {
	for _, p := range f.pairs {
		if p.ID == pairID {
			p.QueueStatus = matchingEntity.QueueStatusSidelined
			p.Status = matchingEntity.PairStatusInactive
			p.PendingEventID = nil
		}
	}
	return nil
}

type memUserRepo struct {
	users map[uuid.UUID]*userEntity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]*userEntity.User{}}
}

func (f *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*userEntity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *memUserRepo) GetByIDTx(ctx context.Context, _ *sqlx.Tx, id uuid.UUID, _ bool) (*userEntity.User, error) {
	return f.GetByID(ctx, id)
}

func (f *memUserRepo) UpdateEventStateTx(_ context.Context, _ *sqlx.Tx, user *userEntity.User) error {
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *memUserRepo) UpsertPendingEvent(_ context.Context, userID uuid.UUID, assignment userEntity.EventAssignment) error {
	if u, ok := f.users[userID]; ok {
		u.PendingEvents = u.PendingEvents.Upsert(assignment)
	}
	return nil
}

type stubChat struct {
	calls  int
	roomID string
}

func (s *stubChat) CreateOrUpdateChatForEvent(_ context.Context, _ *entity.Event, _ []string, _ *entity.VenueOption) (string, error) {
	s.calls++
	return s.roomID, nil
}

type stubNotifier struct {
	sent []uuid.UUID
}

func (s *stubNotifier) SendEventNotification(_ context.Context, userID uuid.UUID, _, _ string, _ map[string]string) error {
	s.sent = append(s.sent, userID)
	return nil
}

type fixture struct {
	events        *memEventRepo
	participants  *memParticipantRepo
	pairs         *memPairRepo
	users         *memUserRepo
	chat          *stubChat
	notifier      *stubNotifier
	orchestrator  OrchestratorServiceInterface
	participation ParticipationServiceInterface
	reminders     ReminderServiceInterface
}

func newFixture() *fixture {
	return newFixtureWith(config.EventsConfig{})
}

func newFixtureWith(eventsCfg config.EventsConfig) *fixture {
	f := &fixture{
		events:       newMemEventRepo(),
		participants: newMemParticipantRepo(),
		pairs:        &memPairRepo{},
		users:        newMemUserRepo(),
		chat:         &stubChat{roomID: "room-1"},
		notifier:     &stubNotifier{},
	}
	templates := NewConfigTemplateProvider(eventsCfg)
	f.orchestrator = NewOrchestratorService(memTx{}, templates, f.events, f.participants, f.pairs, f.users)
	f.participation = NewParticipationService(memTx{}, f.events, f.participants, f.pairs, f.users, f.chat, f.notifier, f.orchestrator)
	f.reminders = NewReminderService(f.events, f.notifier)
	return f
}

func (f *fixture) addUser() uuid.UUID {
	id := uuid.New()
	f.users.users[id] = &userEntity.User{ID: id}
	return id
}

func (f *fixture) addQueuedPair(id string, eventType entity.EventType) (matchingEntity.PairMatch, uuid.UUID, uuid.UUID) {
	userA := f.addUser()
	userB := f.addUser()
	lo, hi := matchingEntity.SortUserIDs(userA, userB)
	pair := matchingEntity.PairMatch{
		ID:             id,
		PairKey:        matchingEntity.PairKeyFor(lo, hi),
		UserAID:        lo,
		UserBID:        hi,
		Status:         matchingEntity.PairStatusActive,
		QueueStatus:    matchingEntity.QueueStatusQueued,
		QueueEventType: &eventType,
		AvailabilityOverlapSegments: matchingEntity.OverlapDays{
			{Date: "2026-09-20", Segments: []string{"morning"}},
		},
	}
	_ = f.pairs.Create(context.Background(), &pair)
	return pair, lo, hi
}

func singleEvent(t *testing.T, repo *memEventRepo) *entity.Event {
	t.Helper()
	require.Len(t, repo.events, 1)
	for _, e := range repo.events {
		return e
	}
	return nil
}

func TestBatchPairs(t *testing.T) {
	pairs := make([]matchingEntity.PairMatch, 5)

	batches := BatchPairs(pairs, 2)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)

	assert.Empty(t, BatchPairs(pairs[:1], 2))
	assert.Len(t, BatchPairs(pairs, 0), 5)
}

func TestApplyVote(t *testing.T) {
	totals := entity.VoteTotals{}

	applyVote(totals, nil, "a")
	assert.Equal(t, 1, totals["a"])

	prev := "a"
	applyVote(totals, &prev, "b")
	assert.Equal(t, 0, totals["a"])
	assert.Equal(t, 1, totals["b"])

	prev = "b"
	applyVote(totals, &prev, "")
	assert.Equal(t, 0, totals["b"])
}

func TestPickWinningVenue(t *testing.T) {
	options := entity.VenueOptions{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	winner := PickWinningVenue(options, entity.VoteTotals{"a": 1, "b": 3, "c": 2})
	require.NotNil(t, winner)
	assert.Equal(t, "b", winner.ID)

	// ties fall to the earlier-listed option
	winner = PickWinningVenue(options, entity.VoteTotals{"a": 2, "b": 2})
	require.NotNil(t, winner)
	assert.Equal(t, "a", winner.ID)

	winner = PickWinningVenue(options, entity.VoteTotals{})
	require.NotNil(t, winner)
	assert.Equal(t, "a", winner.ID)
}

func TestReminderWindow(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	start, end := ReminderWindow(now)
	assert.Equal(t, now.Add(constants.ReminderLeadTime), start)
	assert.Equal(t, constants.ReminderWindowSize, end.Sub(start))
}

func TestProcessQueueCreatesEventFromFullBatch(t *testing.T) {
	f := newFixture()
	_, userA1, userB1 := f.addQueuedPair("pair-1", entity.EventTypeCoffee)
	f.addQueuedPair("pair-2", entity.EventTypeCoffee)
	f.addQueuedPair("pair-3", entity.EventTypeCoffee) // leftover below a full batch

	created, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeCoffee)
	require.Nil(t, appErr)
	require.Len(t, created, 1)

	event := singleEvent(t, f.events)
	assert.Equal(t, created[0], event.ID)
	assert.Equal(t, entity.EventTypeCoffee, event.EventType)
	assert.Equal(t, entity.EventStatusPendingJoin, event.Status)
	assert.Equal(t, 2, event.RequiredPairCount)
	assert.ElementsMatch(t, []string{"pair-1", "pair-2"}, event.PendingPairMatchIDs)
	assert.Len(t, event.ParticipantUserIDs, 4)
	assert.Equal(t, entity.ParticipantStatusPendingJoin, event.ParticipantStatuses[userA1.String()])

	pair1, _ := f.pairs.GetByID(context.Background(), "pair-1")
	require.NotNil(t, pair1.PendingEventID)
	assert.Equal(t, event.ID, *pair1.PendingEventID)
	assert.Equal(t, matchingEntity.QueueStatusInEvent, pair1.QueueStatus)

	pair3, _ := f.pairs.GetByID(context.Background(), "pair-3")
	assert.Nil(t, pair3.PendingEventID)
	assert.Equal(t, matchingEntity.QueueStatusQueued, pair3.QueueStatus)

	user := f.users.users[userA1]
	require.Len(t, user.PendingEvents, 1)
	assert.Equal(t, event.ID, user.PendingEvents[0].EventID)

	participant, _ := f.participants.Get(context.Background(), entity.ParticipantID(event.ID, userB1))
	require.NotNil(t, participant)
	assert.Equal(t, entity.ParticipantStatusPendingJoin, participant.Status)
}

func TestProcessQueueSkipsBannedUsers(t *testing.T) {
	f := newFixture()
	_, bannedUser, _ := f.addQueuedPair("pair-1", entity.EventTypeBar)
	f.addQueuedPair("pair-2", entity.EventTypeBar)

	until := time.Now().Add(24 * time.Hour)
	f.users.users[bannedUser].EventBanUntil = &until

	created, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeBar)
	require.Nil(t, appErr)
	assert.Empty(t, created)
	assert.Empty(t, f.events.events)
}

func TestFillEventVacanciesBackfills(t *testing.T) {
	f := newFixture()
	_, userA1, userB1 := f.addQueuedPair("pair-1", entity.EventTypeHiking)
	f.addQueuedPair("pair-2", entity.EventTypeHiking)

	_, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeHiking)
	require.Nil(t, appErr)
	event := singleEvent(t, f.events)

	// one pair leaves, opening a slot
	_, appErr = f.participation.CancelParticipation(context.Background(), event.ID, userA1)
	require.Nil(t, appErr)

	// a fresh pair queues up and the next vacancy pass places it
	pair3, _, _ := f.addQueuedPair("pair-3", entity.EventTypeHiking)
	assigned, appErr := f.orchestrator.FillEventVacancies(context.Background(), event.ID)
	require.Nil(t, appErr)
	assert.Equal(t, 1, assigned)

	updated, _ := f.events.GetByID(context.Background(), event.ID)
	assert.Contains(t, updated.PendingPairMatchIDs, pair3.ID)
	assert.NotContains(t, updated.PendingPairMatchIDs, "pair-1")
	assert.NotContains(t, []string(updated.ParticipantUserIDs), userA1.String())
	assert.Equal(t, entity.ParticipantStatusCanceled, updated.ParticipantStatuses[userA1.String()])
	assert.Equal(t, entity.ParticipantStatusRemoved, updated.ParticipantStatuses[userB1.String()])
	assert.Len(t, updated.PendingPairMatchIDs, updated.RequiredPairCount)

	// a full event is a no-op for further vacancy passes
	assigned, appErr = f.orchestrator.FillEventVacancies(context.Background(), event.ID)
	require.Nil(t, appErr)
	assert.Zero(t, assigned)
}

func TestSweepOpenVacancies(t *testing.T) {
	f := newFixture()
	_, userA1, _ := f.addQueuedPair("pair-1", entity.EventTypeHiking)
	f.addQueuedPair("pair-2", entity.EventTypeHiking)
	_, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeHiking)
	require.Nil(t, appErr)
	event := singleEvent(t, f.events)

	_, appErr = f.participation.CancelParticipation(context.Background(), event.ID, userA1)
	require.Nil(t, appErr)
	f.addQueuedPair("pair-3", entity.EventTypeHiking)

	assigned, appErr := f.orchestrator.SweepOpenVacancies(context.Background())
	require.Nil(t, appErr)
	assert.Equal(t, 1, assigned)
}

func TestJoinEvent(t *testing.T) {
	f := newFixture()
	_, userA, _ := f.addQueuedPair("pair-1", entity.EventTypeTennis)
	f.addQueuedPair("pair-2", entity.EventTypeTennis)
	_, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeTennis)
	require.Nil(t, appErr)
	event := singleEvent(t, f.events)

	resp, appErr := f.participation.JoinEvent(context.Background(), event.ID, userA)
	require.Nil(t, appErr)
	assert.Equal(t, entity.ParticipantStatusJoined, resp.ParticipantStatuses[userA.String()])

	// joining again is a no-op success
	resp, appErr = f.participation.JoinEvent(context.Background(), event.ID, userA)
	require.Nil(t, appErr)
	assert.Equal(t, entity.ParticipantStatusJoined, resp.ParticipantStatuses[userA.String()])

	user := f.users.users[userA]
	assert.True(t, user.JoinedEvents.Contains(event.ID))

	stranger := f.addUser()
	_, appErr = f.participation.JoinEvent(context.Background(), event.ID, stranger)
	require.NotNil(t, appErr)
}

func TestSubmitVoteFinalizesAndProvisionsChat(t *testing.T) {
	f := newFixture()
	_, userA, userB := f.addQueuedPair("pair-1", entity.EventTypeCoffee)
	_, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeCoffee)
	require.Nil(t, appErr)
	f.addQueuedPair("pair-2", entity.EventTypeCoffee)
	_, appErr = f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeCoffee)
	require.Nil(t, appErr)

	// the coffee fallback needs 2 pairs; the second pass completed the event
	event := singleEvent(t, f.events)
	require.Len(t, event.VenueOptions, 1)
	optionID := event.VenueOptions[0].ID

	for _, id := range event.ParticipantUserIDs {
		userID, err := uuid.Parse(id)
		require.NoError(t, err)
		_, appErr = f.participation.JoinEvent(context.Background(), event.ID, userID)
		require.Nil(t, appErr)
	}

	// votes before the last one leave the venue open
	_, appErr = f.participation.SubmitVote(context.Background(), event.ID, userA, optionID)
	require.Nil(t, appErr)
	current, _ := f.events.GetByID(context.Background(), event.ID)
	assert.Nil(t, current.FinalVenueOptionID)
	assert.Zero(t, f.chat.calls)

	// re-voting the same option does not double count
	_, appErr = f.participation.SubmitVote(context.Background(), event.ID, userA, optionID)
	require.Nil(t, appErr)
	current, _ = f.events.GetByID(context.Background(), event.ID)
	assert.Equal(t, 1, current.VotesSubmittedCount)

	_, appErr = f.participation.SubmitVote(context.Background(), event.ID, userB, optionID)
	require.Nil(t, appErr)
	for _, id := range event.ParticipantUserIDs {
		userID, _ := uuid.Parse(id)
		if userID == userA || userID == userB {
			continue
		}
		_, appErr = f.participation.SubmitVote(context.Background(), event.ID, userID, optionID)
		require.Nil(t, appErr)
	}

	final, _ := f.events.GetByID(context.Background(), event.ID)
	require.NotNil(t, final.FinalVenueOptionID)
	assert.Equal(t, optionID, *final.FinalVenueOptionID)
	assert.Equal(t, entity.EventStatusReady, final.Status)
	require.NotNil(t, final.ChatRoomID)
	assert.Equal(t, "room-1", *final.ChatRoomID)
	assert.Equal(t, 1, f.chat.calls)

	// re-voting after finalization is accepted and changes nothing here
	_, appErr = f.participation.SubmitVote(context.Background(), event.ID, userA, optionID)
	require.Nil(t, appErr)
	after, _ := f.events.GetByID(context.Background(), event.ID)
	assert.Equal(t, optionID, *after.FinalVenueOptionID)
	assert.Equal(t, 1, f.chat.calls)
}

func TestSubmitVoteAfterFinalizationMovesTalliesOnly(t *testing.T) {
	f := newFixtureWith(config.EventsConfig{Templates: []config.EventTemplateConfig{{
		EventType: string(entity.EventTypeCoffee),
		Title:     "Coffee Hangout",
		GroupSize: 2,
		Venues: []config.VenueConfig{
			{Name: "Blue Bottle"},
			{Name: "Verve"},
		},
	}}})

	_, userA, userB := f.addQueuedPair("pair-1", entity.EventTypeCoffee)
	_, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeCoffee)
	require.Nil(t, appErr)
	event := singleEvent(t, f.events)
	require.Len(t, event.VenueOptions, 2)
	first, second := event.VenueOptions[0].ID, event.VenueOptions[1].ID

	for _, userID := range []uuid.UUID{userA, userB} {
		_, appErr = f.participation.JoinEvent(context.Background(), event.ID, userID)
		require.Nil(t, appErr)
	}

	// split vote finalizes on the earlier-listed option
	_, appErr = f.participation.SubmitVote(context.Background(), event.ID, userA, first)
	require.Nil(t, appErr)
	_, appErr = f.participation.SubmitVote(context.Background(), event.ID, userB, second)
	require.Nil(t, appErr)

	finalized, _ := f.events.GetByID(context.Background(), event.ID)
	require.NotNil(t, finalized.FinalVenueOptionID)
	assert.Equal(t, first, *finalized.FinalVenueOptionID)

	// switching a vote afterwards moves the tallies but not the venue
	resp, appErr := f.participation.SubmitVote(context.Background(), event.ID, userA, second)
	require.Nil(t, appErr)
	assert.Zero(t, resp.VenueVoteTotals[first])
	assert.Equal(t, 2, resp.VenueVoteTotals[second])
	assert.Equal(t, 2, resp.VotesSubmittedCount)
	assert.Equal(t, first, *resp.FinalVenueOptionID)
	assert.Equal(t, 1, f.chat.calls)
}

func TestCancelParticipationPenalizesCallerOnly(t *testing.T) {
	f := newFixture()
	_, caller, partner := f.addQueuedPair("pair-1", entity.EventTypeDogWalking)
	f.addQueuedPair("pair-2", entity.EventTypeDogWalking)
	_, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeDogWalking)
	require.Nil(t, appErr)
	event := singleEvent(t, f.events)

	_, appErr = f.participation.JoinEvent(context.Background(), event.ID, caller)
	require.Nil(t, appErr)
	_, appErr = f.participation.SubmitVote(context.Background(), event.ID, caller, event.VenueOptions[0].ID)
	require.Nil(t, appErr)

	resp, appErr := f.participation.CancelParticipation(context.Background(), event.ID, caller)
	require.Nil(t, appErr)
	assert.Equal(t, entity.ParticipantStatusCanceled, resp.ParticipantStatuses[caller.String()])
	assert.Equal(t, entity.ParticipantStatusRemoved, resp.ParticipantStatuses[partner.String()])
	assert.Zero(t, resp.VotesSubmittedCount)
	assert.Zero(t, resp.VenueVoteTotals[event.VenueOptions[0].ID])

	assert.Equal(t, 1, f.users.users[caller].EventCancelCount)
	assert.Zero(t, f.users.users[partner].EventCancelCount)
	assert.Contains(t, f.notifier.sent, partner)

	pair, _ := f.pairs.GetByID(context.Background(), "pair-1")
	assert.Equal(t, matchingEntity.QueueStatusSidelined, pair.QueueStatus)
	assert.Nil(t, pair.PendingEventID)
}

func TestCancelParticipationThirdCancelBans(t *testing.T) {
	f := newFixture()
	caller := f.addUser()
	f.users.users[caller].EventCancelCount = 2

	eventType := entity.EventTypeCoffee
	pair := matchingEntity.PairMatch{
		ID: "pair-1", Status: matchingEntity.PairStatusActive,
		QueueStatus: matchingEntity.QueueStatusQueued, QueueEventType: &eventType,
		UserAID: caller, UserBID: f.addUser(),
	}
	require.NoError(t, f.pairs.Create(context.Background(), &pair))
	f.addQueuedPair("pair-2", eventType)

	_, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), eventType)
	require.Nil(t, appErr)
	event := singleEvent(t, f.events)

	_, appErr = f.participation.CancelParticipation(context.Background(), event.ID, caller)
	require.Nil(t, appErr)

	user := f.users.users[caller]
	require.NotNil(t, user.EventBanUntil)
	assert.True(t, user.EventBanUntil.After(time.Now()))
	assert.Zero(t, user.EventCancelCount)
}

func TestCancelLastPairRevertsEventToPendingJoin(t *testing.T) {
	f := newFixture()
	_, userA1, _ := f.addQueuedPair("pair-1", entity.EventTypeRestaurant)
	_, userA2, _ := f.addQueuedPair("pair-2", entity.EventTypeRestaurant)
	_, appErr := f.orchestrator.ProcessQueueForEventType(context.Background(), entity.EventTypeRestaurant)
	require.Nil(t, appErr)
	event := singleEvent(t, f.events)

	_, appErr = f.participation.CancelParticipation(context.Background(), event.ID, userA1)
	require.Nil(t, appErr)
	resp, appErr := f.participation.CancelParticipation(context.Background(), event.ID, userA2)
	require.Nil(t, appErr)

	assert.Equal(t, entity.EventStatusPendingJoin, resp.Status)
	assert.Empty(t, resp.ParticipantUserIDs)
	assert.Empty(t, resp.PendingPairMatchIDs)
}

func TestSendUpcomingEventReminders(t *testing.T) {
	f := newFixture()
	userA := f.addUser()
	userB := f.addUser()
	roomID := "room-1"
	optionID := "coffee-0-local-coffee-house"
	inWindow := time.Now().Add(constants.ReminderLeadTime).Add(30 * time.Minute)

	event := &entity.Event{
		ID:        "evt-1",
		EventType: entity.EventTypeCoffee,
		Title:     "Coffee Meetup",
		VenueOptions: entity.VenueOptions{
			{ID: optionID, Name: "Local Coffee House"},
		},
		FinalVenueOptionID: &optionID,
		ParticipantUserIDs: entity.StringSlice{userA.String(), userB.String()},
		ParticipantStatuses: entity.ParticipantStatusMap{
			userA.String(): entity.ParticipantStatusJoined,
			userB.String(): entity.ParticipantStatusJoined,
		},
		Status:     entity.EventStatusReady,
		ChatRoomID: &roomID,
		Date:       inWindow,
	}
	require.NoError(t, f.events.CreateTx(context.Background(), nil, event))

	// an event outside the window is untouched
	far := *event
	far.ID = "evt-2"
	far.Date = time.Now().Add(14 * 24 * time.Hour)
	require.NoError(t, f.events.CreateTx(context.Background(), nil, &far))

	processed, appErr := f.reminders.SendUpcomingEventReminders(context.Background())
	require.Nil(t, appErr)
	assert.Equal(t, 1, processed)
	assert.ElementsMatch(t, []uuid.UUID{userA, userB}, f.notifier.sent)

	stored, _ := f.events.GetByID(context.Background(), "evt-1")
	assert.True(t, stored.ReminderSent)
	untouched, _ := f.events.GetByID(context.Background(), "evt-2")
	assert.False(t, untouched.ReminderSent)

	// a second pass does not re-remind
	processed, appErr = f.reminders.SendUpcomingEventReminders(context.Background())
	require.Nil(t, appErr)
	assert.Zero(t, processed)
	assert.Len(t, f.notifier.sent, 2)
}
