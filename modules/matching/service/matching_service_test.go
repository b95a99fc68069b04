package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duet-api/modules/matching/entity"
	eventEntity "duet-api/modules/event/entity"
	userEntity "duet-api/modules/user/entity"
)

type fakePairRepo struct {
	byKey map[string]*entity.PairMatch
}

func newFakePairRepo() *fakePairRepo {
	return &fakePairRepo{byKey: map[string]*entity.PairMatch{}}
}

func (f *fakePairRepo) Create(_ context.Context, pair *entity.PairMatch) error {
	cp := *pair
	f.byKey[pair.PairKey] = &cp
	return nil
}

func (f *fakePairRepo) GetByPairKey(_ context.Context, pairKey string) (*entity.PairMatch, error) {
	if p, ok := f.byKey[pairKey]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakePairRepo) GetByID(_ context.Context, id string) (*entity.PairMatch, error) {
	for _, p := range f.byKey {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePairRepo) GetByIDTx(_ context.Context, _ *sqlx.Tx, id string, _ bool) (*entity.PairMatch, error) {
	return f.GetByID(context.Background(), id)
}

func (f *fakePairRepo) UpdateDerivedFields(_ context.Context, pair *entity.PairMatch) error {
	stored, ok := f.byKey[pair.PairKey]
	if !ok {
		return nil
	}
	cp := *pair
	cp.PendingEventID = stored.PendingEventID // column is never written by this path
	f.byKey[pair.PairKey] = &cp
	return nil
}

func (f *fakePairRepo) GetQueuedByEventType(_ context.Context, eventType eventEntity.EventType) ([]entity.PairMatch, error) {
	var out []entity.PairMatch
	for _, p := range f.byKey {
		if p.QueueStatus == entity.QueueStatusQueued && p.QueueEventType != nil && *p.QueueEventType == eventType {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePairRepo) GetActiveByUser(_ context.Context, userID uuid.UUID) ([]entity.PairMatch, error) {
	var out []entity.PairMatch
	for _, p := range f.byKey {
		if p.Status == entity.PairStatusActive && p.ContainsUser(userID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePairRepo) MarkInEventTx(_ context.Context, _ *sqlx.Tx, pairID string, eventID string) error {
	for _, p := range f.byKey {
		if p.ID == pairID {
			p.QueueStatus = entity.QueueStatusInEvent
			p.PendingEventID = &eventID
		}
	}
	return nil
}

func (f *fakePairRepo) MarkSidelined(_ context.Context, pairID string) error {
	for _, p := range f.byKey {
		if p.ID == pairID {
			p.QueueStatus = entity.QueueStatusSidelined
			p.Status = entity.PairStatusInactive
			p.PendingEventID = nil
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*userEntity.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*userEntity.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByIDTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, _ bool) (*userEntity.User, error) {
	return f.GetByID(context.Background(), id)
}

func (f *fakeUserRepo) UpdateEventStateTx(_ context.Context, _ *sqlx.Tx, user *userEntity.User) error {
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpsertPendingEvent(_ context.Context, userID uuid.UUID, assignment userEntity.EventAssignment) error {
	if u, ok := f.users[userID]; ok {
		u.PendingEvents = u.PendingEvents.Upsert(assignment)
	}
	return nil
}

func matchedUsers() (*fakeUserRepo, uuid.UUID, uuid.UUID) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	avail := userEntity.AvailabilityMap{
		"2099-10-18": {Morning: true, Evening: true},
	}

	return &fakeUserRepo{users: map[uuid.UUID]*userEntity.User{
		a: {ID: a, Interests: userEntity.Interests{"Hiking", "Coffee Date"}, Availability: avail},
		b: {ID: b, Interests: userEntity.Interests{"Hiking"}, Availability: avail},
	}}, a, b
}

func TestUpsertPairMatch_CreatesQueuedPair(t *testing.T) {
	users, a, b := matchedUsers()
	pairs := newFakePairRepo()
	svc := NewMatchingService(pairs, users)

	resp, appErr := svc.UpsertPairMatch(context.Background(), b, a) // order must not matter
	require.Nil(t, appErr)

	assert.Equal(t, string(entity.QueueStatusQueued), resp.QueueStatus)
	require.NotNil(t, resp.QueueEventType)
	assert.Equal(t, eventEntity.EventTypeHiking, *resp.QueueEventType)
	assert.Equal(t, entity.PairKeyFor(a, b), resp.PairKey)
	assert.True(t, resp.HasSufficientAvailability)
	assert.Nil(t, resp.PendingEventID)
}

func TestUpsertPairMatch_Idempotent(t *testing.T) {
	users, a, b := matchedUsers()
	pairs := newFakePairRepo()
	svc := NewMatchingService(pairs, users)

	first, appErr := svc.UpsertPairMatch(context.Background(), a, b)
	require.Nil(t, appErr)

	second, appErr := svc.UpsertPairMatch(context.Background(), a, b)
	require.Nil(t, appErr)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.QueueStatus, second.QueueStatus)
	assert.Equal(t, first.QueueEventType, second.QueueEventType)
	assert.Nil(t, second.PendingEventID)
}

func TestUpsertPairMatch_PreservesInEventCommitment(t *testing.T) {
	users, a, b := matchedUsers()
	pairs := newFakePairRepo()
	svc := NewMatchingService(pairs, users)

	first, appErr := svc.UpsertPairMatch(context.Background(), a, b)
	require.Nil(t, appErr)

	// Orchestration commits the pair to an event.
	require.NoError(t, pairs.MarkInEventTx(context.Background(), nil, first.ID, "evt1"))

	second, appErr := svc.UpsertPairMatch(context.Background(), a, b)
	require.Nil(t, appErr)

	assert.Equal(t, string(entity.QueueStatusInEvent), second.QueueStatus)
	stored, _ := pairs.GetByID(context.Background(), first.ID)
	require.NotNil(t, stored.PendingEventID)
	assert.Equal(t, "evt1", *stored.PendingEventID)
}

func TestUpsertPairMatch_InsufficientAvailability(t *testing.T) {
	users, a, b := matchedUsers()
	users.users[a].Availability = userEntity.AvailabilityMap{
		"2099-10-18": {Morning: true},
	}
	pairs := newFakePairRepo()
	svc := NewMatchingService(pairs, users)

	resp, appErr := svc.UpsertPairMatch(context.Background(), a, b)
	require.Nil(t, appErr)

	assert.Equal(t, string(entity.QueueStatusAwaitingAvailability), resp.QueueStatus)
	assert.Nil(t, resp.QueueEventType)
	assert.False(t, resp.HasSufficientAvailability)
}

func TestUpsertPairMatch_NoSharedInterests(t *testing.T) {
	users, a, b := matchedUsers()
	users.users[b].Interests = userEntity.Interests{"Tennis"}
	pairs := newFakePairRepo()
	svc := NewMatchingService(pairs, users)

	resp, appErr := svc.UpsertPairMatch(context.Background(), a, b)
	require.Nil(t, appErr)

	assert.Equal(t, string(entity.QueueStatusAwaitingEventType), resp.QueueStatus)
	assert.Nil(t, resp.QueueEventType)
}

func TestUpsertPairMatch_RejectsSelfPair(t *testing.T) {
	users, a, _ := matchedUsers()
	svc := NewMatchingService(newFakePairRepo(), users)

	_, appErr := svc.UpsertPairMatch(context.Background(), a, a)
	require.NotNil(t, appErr)
}
