package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"duet-api/core/errors"
	"duet-api/core/logger"
	"duet-api/core/utils"
	"duet-api/modules/matching/dto"
	"duet-api/modules/matching/entity"
	"duet-api/modules/matching/repository"
	eventEntity "duet-api/modules/event/entity"
	userRepository "duet-api/modules/user/repository"
)

// MatchingService owns the pair matching ledger.
type MatchingService struct {
	pairRepo repository.PairMatchRepositoryInterface
	userRepo userRepository.UserRepositoryInterface
}

type MatchingServiceInterface interface {
	UpsertPairMatch(ctx context.Context, userAID, userBID uuid.UUID) (*dto.PairMatchResponse, *errors.AppError)
	GetPairMatchesForUser(ctx context.Context, userID uuid.UUID) ([]dto.PairMatchResponse, *errors.AppError)
	GetQueuedPairsForEventType(ctx context.Context, eventType eventEntity.EventType) ([]entity.PairMatch, *errors.AppError)
}

func NewMatchingService(pairRepo repository.PairMatchRepositoryInterface, userRepo userRepository.UserRepositoryInterface) MatchingServiceInterface {
	return &MatchingService{
		pairRepo: pairRepo,
		userRepo: userRepo,
	}
}

// UpsertPairMatch recomputes the pair's queueing state from both users'
// current availability and interests. Called on every mutual-like trigger;
// calling it again with unchanged inputs only moves timestamps.
func (s *MatchingService) UpsertPairMatch(ctx context.Context, userAID, userBID uuid.UUID) (*dto.PairMatchResponse, *errors.AppError) {
	if userAID == userBID {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "A pair needs two distinct users", nil)
	}

	loID, hiID := entity.SortUserIDs(userAID, userBID)

	userA, err := s.userRepo.GetByID(ctx, loID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load user", err)
	}
	userB, err := s.userRepo.GetByID(ctx, hiID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load user", err)
	}
	if userA == nil || userB == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "User not found", nil)
	}

	now := time.Now()
	overlap := ComputeOverlap(userA.Availability, userB.Availability, now)
	totalSegments := overlap.TotalSegments()
	sufficient := HasSufficientAvailability(totalSegments)
	shared := SharedEventTypes(userA.Interests, userB.Interests)

	queueStatus, queueType := entity.DeriveQueueStatus(sufficient, shared)
	var suggested *eventEntity.EventType
	if len(shared) > 0 {
		first := shared[0]
		suggested = &first
	}

	pairKey := entity.PairKeyFor(loID, hiID)
	existing, err := s.pairRepo.GetByPairKey(ctx, pairKey)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load pair match", err)
	}

	if existing == nil {
		pair := &entity.PairMatch{
			ID:                          utils.GenerateID(),
			PairKey:                     pairKey,
			UserAID:                     loID,
			UserBID:                     hiID,
			Status:                      entity.PairStatusActive,
			QueueStatus:                 queueStatus,
			QueueEventType:              queueType,
			SuggestedEventType:          suggested,
			SharedEventTypes:            shared,
			AvailabilityOverlapCount:    totalSegments,
			AvailabilityOverlapSegments: overlap,
			AvailabilityComputedAt:      now,
			HasSufficientAvailability:   sufficient,
			PendingEventID:              nil,
			CreatedAt:                   now,
			UpdatedAt:                   now,
			LastActivityAt:              now,
		}
		if err := s.pairRepo.Create(ctx, pair); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create pair match", err)
		}
		logger.Info("MatchingService:UpsertPairMatch - created",
			"pair_id", pair.ID, "queue_status", pair.QueueStatus)
		return dto.ToPairMatchResponse(pair), nil
	}

	// A committed pair keeps its in_event state; the recompute must not
	// clobber an in-flight event assignment.
	existing.Status = entity.PairStatusActive
	existing.SharedEventTypes = shared
	existing.SuggestedEventType = suggested
	existing.AvailabilityOverlapCount = totalSegments
	existing.AvailabilityOverlapSegments = overlap
	existing.AvailabilityComputedAt = now
	existing.HasSufficientAvailability = sufficient
	if existing.PendingEventID == nil {
		existing.QueueStatus = queueStatus
		existing.QueueEventType = queueType
	}

	if err := s.pairRepo.UpdateDerivedFields(ctx, existing); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update pair match", err)
	}
	existing.UpdatedAt = now
	existing.LastActivityAt = now

	return dto.ToPairMatchResponse(existing), nil
}

// GetPairMatchesForUser lists the user's active pair matches.
func (s *MatchingService) GetPairMatchesForUser(ctx context.Context, userID uuid.UUID) ([]dto.PairMatchResponse, *errors.AppError) {
	pairs, err := s.pairRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load pair matches", err)
	}

	result := make([]dto.PairMatchResponse, 0, len(pairs))
	for i := range pairs {
		result = append(result, *dto.ToPairMatchResponse(&pairs[i]))
	}
	return result, nil
}

// GetQueuedPairsForEventType exposes the queue to the event orchestrator.
func (s *MatchingService) GetQueuedPairsForEventType(ctx context.Context, eventType eventEntity.EventType) ([]entity.PairMatch, *errors.AppError) {
	pairs, err := s.pairRepo.GetQueuedByEventType(ctx, eventType)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load queued pairs", err)
	}
	return pairs, nil
}
