package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"duet-api/core/constants"
	"duet-api/core/errors"
	"duet-api/core/logger"
	"duet-api/core/utils"
	"duet-api/modules/event/entity"
	"duet-api/modules/event/repository"
	matchingEntity "duet-api/modules/matching/entity"
	matchingRepository "duet-api/modules/matching/repository"
	userEntity "duet-api/modules/user/entity"
	userRepository "duet-api/modules/user/repository"
)

// TxRunner runs a function inside a single database transaction.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// OrchestratorService turns queued pairs into events and backfills events
// that lost participants.
type OrchestratorService struct {
	db              TxRunner
	templates       TemplateProvider
	eventRepo       repository.EventRepositoryInterface
	participantRepo repository.ParticipantRepositoryInterface
	pairRepo        matchingRepository.PairMatchRepositoryInterface
	userRepo        userRepository.UserRepositoryInterface
}

type OrchestratorServiceInterface interface {
	ProcessAllQueues(ctx context.Context) (map[entity.EventType][]string, *errors.AppError)
	ProcessQueueForEventType(ctx context.Context, eventType entity.EventType) ([]string, *errors.AppError)
	FillEventVacancies(ctx context.Context, eventID string) (int, *errors.AppError)
	SweepOpenVacancies(ctx context.Context) (int, *errors.AppError)
}

func NewOrchestratorService(
	db TxRunner,
	templates TemplateProvider,
	eventRepo repository.EventRepositoryInterface,
	participantRepo repository.ParticipantRepositoryInterface,
	pairRepo matchingRepository.PairMatchRepositoryInterface,
	userRepo userRepository.UserRepositoryInterface,
) OrchestratorServiceInterface {
	return &OrchestratorService{
		db:              db,
		templates:       templates,
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		pairRepo:        pairRepo,
		userRepo:        userRepo,
	}
}

// ProcessAllQueues runs one orchestration pass over every event type and
// returns the created event ids per type. A failure in one queue never
// blocks the others.
func (s *OrchestratorService) ProcessAllQueues(ctx context.Context) (map[entity.EventType][]string, *errors.AppError) {
	created := make(map[entity.EventType][]string)
	for _, eventType := range entity.AllEventTypes {
		ids, err := s.ProcessQueueForEventType(ctx, eventType)
		if err != nil {
			logger.Error("OrchestratorService:ProcessAllQueues - "+string(eventType), err.Err)
			continue
		}
		created[eventType] = ids
	}
	return created, nil
}

// ProcessQueueForEventType groups the type's queued pairs, oldest-waiting
// first, into complete batches and creates one event per batch. Leftover
// pairs below a full batch stay queued for the next run.
func (s *OrchestratorService) ProcessQueueForEventType(ctx context.Context, eventType entity.EventType) ([]string, *errors.AppError) {
	if !eventType.Valid() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Unknown event type", nil)
	}

	tmpl, ok := FirstTemplate(s.templates, eventType)
	if !ok {
		return nil, errors.NewAppError(errors.ErrInternalServer, "No template for event type", nil)
	}

	pairs, appErr := s.eligibleQueuedPairs(ctx, eventType)
	if appErr != nil {
		return nil, appErr
	}

	var created []string
	now := time.Now()
	for _, batch := range BatchPairs(pairs, PairsRequired(tmpl)) {
		eventID, err := s.createEventFromBatch(ctx, eventType, tmpl, batch, now)
		if err != nil {
			logger.Error("OrchestratorService:ProcessQueueForEventType - create", err)
			continue
		}
		created = append(created, eventID)
	}
	return created, nil
}

// FillEventVacancies assigns queued pairs of the event's type to the event
// until it holds the pairs it needs or the queue runs out. Returns the
// number of pairs placed.
func (s *OrchestratorService) FillEventVacancies(ctx context.Context, eventID string) (int, *errors.AppError) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrInternalServer, "Failed to load event", err)
	}
	if event == nil {
		return 0, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	deficit := event.RequiredPairCount - len(event.PendingPairMatchIDs)
	if deficit <= 0 {
		return 0, nil
	}

	pairs, appErr := s.eligibleQueuedPairs(ctx, event.EventType)
	if appErr != nil {
		return 0, appErr
	}

	assigned := 0
	for _, pair := range pairs {
		if deficit <= 0 {
			break
		}
		ok, err := s.assignPairToEvent(ctx, eventID, pair, time.Now())
		if err != nil {
			logger.Error("OrchestratorService:FillEventVacancies", err)
			continue
		}
		if ok {
			assigned++
			deficit--
		}
	}
	return assigned, nil
}

// SweepOpenVacancies backfills every open event still short of pairs,
// across all types. Run after the queue pass so leftovers find a vacancy
// before they wait out another interval.
func (s *OrchestratorService) SweepOpenVacancies(ctx context.Context) (int, *errors.AppError) {
	assigned := 0
	for _, eventType := range entity.AllEventTypes {
		events, err := s.eventRepo.GetOpenDeficitByType(ctx, eventType)
		if err != nil {
			logger.Error("OrchestratorService:SweepOpenVacancies - "+string(eventType), err)
			continue
		}
		for _, event := range events {
			n, appErr := s.FillEventVacancies(ctx, event.ID)
			if appErr != nil {
				logger.Error("OrchestratorService:SweepOpenVacancies - "+event.ID, appErr.Err)
				continue
			}
			assigned += n
		}
	}
	return assigned, nil
}

// eligibleQueuedPairs loads the queue oldest-first and drops pairs already
// committed to an event or whose users cannot currently be placed.
func (s *OrchestratorService) eligibleQueuedPairs(ctx context.Context, eventType entity.EventType) ([]matchingEntity.PairMatch, *errors.AppError) {
	queued, err := s.pairRepo.GetQueuedByEventType(ctx, eventType)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load queued pairs", err)
	}

	now := time.Now()
	eligible := make([]matchingEntity.PairMatch, 0, len(queued))
	for _, pair := range queued {
		if pair.PendingEventID != nil {
			continue
		}
		if s.pairPlaceable(ctx, pair, eventType, now) {
			eligible = append(eligible, pair)
		}
	}
	return eligible, nil
}

func (s *OrchestratorService) pairPlaceable(ctx context.Context, pair matchingEntity.PairMatch, eventType entity.EventType, now time.Time) bool {
	for _, userID := range []uuid.UUID{pair.UserAID, pair.UserBID} {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil || user == nil {
			return false
		}
		if user.IsBanned(now) || user.PendingEvents.HasConflicting(eventType, "") {
			return false
		}
	}
	return true
}

// BatchPairs splits the queue into consecutive complete batches of the
// required size, preserving queue order.
func BatchPairs(pairs []matchingEntity.PairMatch, required int) [][]matchingEntity.PairMatch {
	if required < 1 {
		required = 1
	}

	var batches [][]matchingEntity.PairMatch
	for len(pairs) >= required {
		batches = append(batches, pairs[:required])
		pairs = pairs[required:]
	}
	return batches
}

// createEventFromBatch stamps a new event from the template and commits the
// batch's pairs and users to it in one transaction.
func (s *OrchestratorService) createEventFromBatch(ctx context.Context, eventType entity.EventType, tmpl EventTemplate, batch []matchingEntity.PairMatch, now time.Time) (string, error) {
	event := &entity.Event{
		ID:                  utils.GenerateID(),
		EventType:           eventType,
		Title:               tmpl.Title,
		Description:         tmpl.Description,
		Category:            tmpl.Category,
		Location:            tmpl.Location,
		Photos:              tmpl.Photos,
		VenueOptions:        BuildVenueOptions(s.templates, eventType, tmpl),
		VenueVoteTotals:     entity.VoteTotals{},
		ParticipantStatuses: entity.ParticipantStatusMap{},
		RequiredPairCount:   PairsRequired(tmpl),
		Status:              entity.EventStatusPendingJoin,
		SuggestedTimes:      BuildSuggestedTimes(batch),
		Date:                now.Add(constants.TentativeEventLeadTime),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, pair := range batch {
		event.PendingPairMatchIDs = append(event.PendingPairMatchIDs, pair.ID)
		for _, userID := range []uuid.UUID{pair.UserAID, pair.UserBID} {
			event.ParticipantUserIDs = append(event.ParticipantUserIDs, userID.String())
			event.ParticipantStatuses[userID.String()] = entity.ParticipantStatusPendingJoin
		}
	}

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.eventRepo.CreateTx(ctx, tx, event); err != nil {
			return err
		}
		for _, pair := range batch {
			if err := s.pairRepo.MarkInEventTx(ctx, tx, pair.ID, event.ID); err != nil {
				return err
			}
			if err := s.commitPairUsersTx(ctx, tx, pair, event, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return event.ID, nil
}

// assignPairToEvent places one queued pair onto an existing open event. All
// eligibility checks are re-run under the row locks; any failed check
// abandons the assignment without error.
func (s *OrchestratorService) assignPairToEvent(ctx context.Context, eventID string, pair matchingEntity.PairMatch, now time.Time) (bool, error) {
	assigned := false
	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		event, err := s.eventRepo.GetByIDTx(ctx, tx, eventID, true)
		if err != nil {
			return err
		}
		if event == nil || event.Status == entity.EventStatusCanceled ||
			len(event.PendingPairMatchIDs) >= event.RequiredPairCount {
			return nil
		}

		locked, err := s.pairRepo.GetByIDTx(ctx, tx, pair.ID, true)
		if err != nil {
			return err
		}
		if locked == nil || locked.PendingEventID != nil ||
			locked.QueueStatus != matchingEntity.QueueStatusQueued {
			return nil
		}

		for _, userID := range []uuid.UUID{locked.UserAID, locked.UserBID} {
			if event.ParticipantUserIDs.Contains(userID.String()) {
				return nil
			}
			user, err := s.userRepo.GetByIDTx(ctx, tx, userID, false)
			if err != nil {
				return err
			}
			if user == nil || user.IsBanned(now) || user.PendingEvents.HasConflicting(event.EventType, "") {
				return nil
			}
		}

		event.PendingPairMatchIDs = append(event.PendingPairMatchIDs, locked.ID)
		for _, userID := range []uuid.UUID{locked.UserAID, locked.UserBID} {
			event.ParticipantUserIDs = append(event.ParticipantUserIDs, userID.String())
			event.ParticipantStatuses[userID.String()] = entity.ParticipantStatusPendingJoin
		}
		event.ConfirmationsReceived = entity.CountConfirmations(event.ParticipantStatuses)
		event.SuggestedTimes = mergeSuggestedTimes(event.SuggestedTimes, locked.AvailabilityOverlapSegments)

		if err := s.eventRepo.UpdateTx(ctx, tx, event); err != nil {
			return err
		}
		if err := s.pairRepo.MarkInEventTx(ctx, tx, locked.ID, event.ID); err != nil {
			return err
		}
		if err := s.commitPairUsersTx(ctx, tx, *locked, event, now); err != nil {
			return err
		}
		assigned = true
		return nil
	})
	return assigned, err
}

// commitPairUsersTx records the pending assignment on both users and opens
// their participant rows.
func (s *OrchestratorService) commitPairUsersTx(ctx context.Context, tx *sqlx.Tx, pair matchingEntity.PairMatch, event *entity.Event, now time.Time) error {
	for _, userID := range []uuid.UUID{pair.UserAID, pair.UserBID} {
		user, err := s.userRepo.GetByIDTx(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if user == nil {
			continue
		}

		user.PendingEvents = user.PendingEvents.Upsert(userEntity.EventAssignment{
			EventID:    event.ID,
			EventType:  event.EventType,
			Status:     entity.ParticipantStatusPendingJoin,
			AssignedAt: now,
			UpdatedAt:  now,
		})
		if err := s.userRepo.UpdateEventStateTx(ctx, tx, user); err != nil {
			return err
		}

		participant := &entity.EventParticipant{
			ID:        entity.ParticipantID(event.ID, userID),
			EventID:   event.ID,
			UserID:    userID,
			Status:    entity.ParticipantStatusPendingJoin,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.participantRepo.UpsertTx(ctx, tx, participant); err != nil {
			return err
		}
	}
	return nil
}

// mergeSuggestedTimes folds an incoming pair's overlap days into an event's
// existing suggested times.
func mergeSuggestedTimes(existing entity.SuggestedTimes, incoming matchingEntity.OverlapDays) entity.SuggestedTimes {
	asOverlap := make(matchingEntity.OverlapDays, 0, len(existing))
	for _, t := range existing {
		asOverlap = append(asOverlap, matchingEntity.OverlapDay{Date: t.Date, Segments: t.Segments})
	}
	return BuildSuggestedTimes([]matchingEntity.PairMatch{
		{AvailabilityOverlapSegments: asOverlap},
		{AvailabilityOverlapSegments: incoming},
	})
}
