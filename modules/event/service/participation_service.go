package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"duet-api/core/constants"
	"duet-api/core/errors"
	"duet-api/core/logger"
	"duet-api/modules/event/dto"
	"duet-api/modules/event/entity"
	"duet-api/modules/event/repository"
	matchingEntity "duet-api/modules/matching/entity"
	matchingRepository "duet-api/modules/matching/repository"
	userEntity "duet-api/modules/user/entity"
	userRepository "duet-api/modules/user/repository"
)

// ChatProvisioner creates or refreshes the group chat attached to an event.
// Implemented by the chat module.
type ChatProvisioner interface {
	CreateOrUpdateChatForEvent(ctx context.Context, event *entity.Event, memberIDs []string, venue *entity.VenueOption) (string, error)
}

// Notifier delivers an event-related push to one user. Implemented by the
// notification module; delivery failures never fail the triggering write.
type Notifier interface {
	SendEventNotification(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error
}

// ParticipationService drives a participant through
// join -> vote -> confirm / cancel.
type ParticipationService struct {
	db              TxRunner
	eventRepo       repository.EventRepositoryInterface
	participantRepo repository.ParticipantRepositoryInterface
	pairRepo        matchingRepository.PairMatchRepositoryInterface
	userRepo        userRepository.UserRepositoryInterface
	chat            ChatProvisioner
	notifier        Notifier
	orchestrator    OrchestratorServiceInterface
}

type ParticipationServiceInterface interface {
	JoinEvent(ctx context.Context, eventID string, userID uuid.UUID) (*dto.EventResponse, *errors.AppError)
	SubmitVote(ctx context.Context, eventID string, userID uuid.UUID, venueOptionID string) (*dto.EventResponse, *errors.AppError)
	RespondToReminder(ctx context.Context, eventID string, userID uuid.UUID, response string) (*dto.EventResponse, *errors.AppError)
	CancelParticipation(ctx context.Context, eventID string, userID uuid.UUID) (*dto.EventResponse, *errors.AppError)
	GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, *errors.AppError)
	GetEventsForUser(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError)
	GetParticipant(ctx context.Context, eventID string, userID uuid.UUID) (*dto.ParticipantResponse, *errors.AppError)
}

func NewParticipationService(
	db TxRunner,
	eventRepo repository.EventRepositoryInterface,
	participantRepo repository.ParticipantRepositoryInterface,
	pairRepo matchingRepository.PairMatchRepositoryInterface,
	userRepo userRepository.UserRepositoryInterface,
	chat ChatProvisioner,
	notifier Notifier,
	orchestrator OrchestratorServiceInterface,
) ParticipationServiceInterface {
	return &ParticipationService{
		db:              db,
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		pairRepo:        pairRepo,
		userRepo:        userRepo,
		chat:            chat,
		notifier:        notifier,
		orchestrator:    orchestrator,
	}
}

// JoinEvent moves the caller from pending_join to joined. Joining twice is
// a no-op success.
func (s *ParticipationService) JoinEvent(ctx context.Context, eventID string, userID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	var out *entity.Event
	var appErr *errors.AppError
	now := time.Now()

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		event, participant, user, err := s.loadForUpdate(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if appErr = validateEventOpen(event, userID); appErr != nil {
			return nil
		}
		if event.Status != entity.EventStatusPendingJoin {
			appErr = errors.NewAppError(errors.ErrInvalidState, "Event is no longer accepting joins", nil)
			return nil
		}

		if participant != nil && participant.Status == entity.ParticipantStatusJoined {
			out = event
			return nil
		}
		if participant != nil && participant.Status != entity.ParticipantStatusPendingJoin {
			appErr = errors.NewAppError(errors.ErrInvalidState, "Participation can no longer be joined", nil)
			return nil
		}
		if user != nil && user.IsBanned(now) {
			appErr = errors.NewAppError(errors.ErrForbidden, "User is temporarily banned from events", nil)
			return nil
		}

		if participant == nil {
			participant = &entity.EventParticipant{
				ID:        entity.ParticipantID(eventID, userID),
				EventID:   eventID,
				UserID:    userID,
				CreatedAt: now,
			}
		}
		participant.Status = entity.ParticipantStatusJoined
		participant.JoinedAt = &now
		participant.UpdatedAt = now
		if err := s.participantRepo.UpsertTx(ctx, tx, participant); err != nil {
			return err
		}

		event.ParticipantStatuses[userID.String()] = entity.ParticipantStatusJoined
		event.ConfirmationsReceived = entity.CountConfirmations(event.ParticipantStatuses)
		if err := s.eventRepo.UpdateTx(ctx, tx, event); err != nil {
			return err
		}

		if user != nil {
			user.PendingEvents = user.PendingEvents.Upsert(userEntity.EventAssignment{
				EventID:   eventID,
				EventType: event.EventType,
				Status:    entity.ParticipantStatusJoined,
				UpdatedAt: now,
			})
			if !user.JoinedEvents.Contains(eventID) {
				user.JoinedEvents = append(user.JoinedEvents, eventID)
			}
			if err := s.userRepo.UpdateEventStateTx(ctx, tx, user); err != nil {
				return err
			}
		}

		out = event
		return nil
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to join event", err)
	}
	if appErr != nil {
		return nil, appErr
	}
	return dto.ToEventResponse(out), nil
}

// SubmitVote records the caller's venue choice, replacing any earlier
// choice. When the last joined participant has voted the venue is
// finalized and the event's chat is provisioned.
func (s *ParticipationService) SubmitVote(ctx context.Context, eventID string, userID uuid.UUID, venueOptionID string) (*dto.EventResponse, *errors.AppError) {
	var out *entity.Event
	var appErr *errors.AppError
	finalized := false
	now := time.Now()

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		event, participant, _, err := s.loadForUpdate(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if appErr = validateEventOpen(event, userID); appErr != nil {
			return nil
		}
		if participant == nil || participant.Status != entity.ParticipantStatusJoined {
			appErr = errors.NewAppError(errors.ErrInvalidState, "Only joined participants can vote", nil)
			return nil
		}
		if event.VenueOptions.ByID(venueOptionID) == nil {
			appErr = errors.NewAppError(errors.ErrInvalidInput, "Unknown venue option", nil)
			return nil
		}

		if participant.VoteVenueOptionID != nil && *participant.VoteVenueOptionID == venueOptionID {
			out = event
			return nil
		}

		firstVote := participant.VoteVenueOptionID == nil
		applyVote(event.VenueVoteTotals, participant.VoteVenueOptionID, venueOptionID)
		if firstVote {
			event.VotesSubmittedCount++
		}
		participant.VoteVenueOptionID = &venueOptionID
		participant.UpdatedAt = now
		if err := s.participantRepo.UpsertTx(ctx, tx, participant); err != nil {
			return err
		}

		// A finalized venue never changes; later vote switches still move
		// the tallies, they just cannot re-run finalization.
		joined := len(event.JoinedParticipantIDs())
		if event.FinalVenueOptionID == nil && joined > 0 && event.VotesSubmittedCount >= joined {
			winner := PickWinningVenue(event.VenueOptions, event.VenueVoteTotals)
			if winner != nil {
				// the chat step promotes the event to ready after the commit
				event.FinalVenueOptionID = &winner.ID
				finalized = true
			}
		}

		if err := s.eventRepo.UpdateTx(ctx, tx, event); err != nil {
			return err
		}
		out = event
		return nil
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to submit vote", err)
	}
	if appErr != nil {
		return nil, appErr
	}

	if finalized {
		s.provisionChat(ctx, out)
	}
	return dto.ToEventResponse(out), nil
}

// provisionChat creates the event's group chat after venue finalization.
// Failures are logged; the finalized vote stands and the next finalizing
// write retries.
func (s *ParticipationService) provisionChat(ctx context.Context, event *entity.Event) {
	venue := event.VenueOptions.ByID(*event.FinalVenueOptionID)
	roomID, err := s.chat.CreateOrUpdateChatForEvent(ctx, event, event.ActiveParticipantIDs(), venue)
	if err != nil {
		logger.Error("ParticipationService:provisionChat", err)
		return
	}
	event.ChatRoomID = &roomID
	if err := s.eventRepo.SetReady(ctx, event.ID, roomID); err != nil {
		logger.Error("ParticipationService:provisionChat - SetReady", err)
	}
}

// RespondToReminder handles the participant's answer to the pre-event
// reminder. Confirm settles them; cancel runs the full cancellation path.
func (s *ParticipationService) RespondToReminder(ctx context.Context, eventID string, userID uuid.UUID, response string) (*dto.EventResponse, *errors.AppError) {
	switch response {
	case dto.ReminderResponseCancel:
		return s.CancelParticipation(ctx, eventID, userID)
	case dto.ReminderResponseConfirm:
	default:
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Response must be confirm or cancel", nil)
	}

	var out *entity.Event
	var appErr *errors.AppError
	now := time.Now()

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		event, participant, user, err := s.loadForUpdate(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if appErr = validateEventOpen(event, userID); appErr != nil {
			return nil
		}
		if participant != nil && participant.Status == entity.ParticipantStatusConfirmed {
			out = event
			return nil
		}
		if participant == nil || participant.Status != entity.ParticipantStatusJoined {
			appErr = errors.NewAppError(errors.ErrInvalidState, "Only joined participants can confirm", nil)
			return nil
		}

		participant.Status = entity.ParticipantStatusConfirmed
		participant.ConfirmedAt = &now
		participant.UpdatedAt = now
		if err := s.participantRepo.UpsertTx(ctx, tx, participant); err != nil {
			return err
		}

		event.ParticipantStatuses[userID.String()] = entity.ParticipantStatusConfirmed
		event.ConfirmationsReceived = entity.CountConfirmations(event.ParticipantStatuses)
		event.Status = entity.DeriveEventStatus(event.ParticipantStatuses, event.FinalVenueOptionID != nil, event.Status)
		if err := s.eventRepo.UpdateTx(ctx, tx, event); err != nil {
			return err
		}

		if user != nil {
			user.PendingEvents = user.PendingEvents.Upsert(userEntity.EventAssignment{
				EventID:   eventID,
				EventType: event.EventType,
				Status:    entity.ParticipantStatusConfirmed,
				UpdatedAt: now,
			})
			if err := s.userRepo.UpdateEventStateTx(ctx, tx, user); err != nil {
				return err
			}
		}

		out = event
		return nil
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to confirm attendance", err)
	}
	if appErr != nil {
		return nil, appErr
	}
	return dto.ToEventResponse(out), nil
}

// CancelParticipation removes the caller and their pair partner from the
// event, reverses their votes, applies the cancel penalty to the caller,
// and frees the slot for backfill.
func (s *ParticipationService) CancelParticipation(ctx context.Context, eventID string, userID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	var out *entity.Event
	var appErr *errors.AppError
	var sidelinedPairID string
	var removedPartnerID *uuid.UUID
	now := time.Now()

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		event, participant, user, err := s.loadForUpdate(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if event == nil {
			appErr = errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
			return nil
		}
		if event.Status == entity.EventStatusCanceled {
			appErr = errors.NewAppError(errors.ErrInvalidState, "Event is already canceled", nil)
			return nil
		}
		if participant == nil {
			appErr = errors.NewAppError(errors.ErrNotFound, "Participant not found", nil)
			return nil
		}
		if participant.Status == entity.ParticipantStatusCanceled {
			out = event
			return nil
		}

		pair, err := s.findPairForUser(ctx, tx, event, userID)
		if err != nil {
			return err
		}

		if err := s.detachParticipant(ctx, tx, event, userID, entity.ParticipantStatusCanceled, now); err != nil {
			return err
		}

		var partner *userEntity.User
		if pair != nil {
			if partnerID, ok := pair.PartnerOf(userID); ok {
				removedPartnerID = &partnerID
				if err := s.detachParticipant(ctx, tx, event, partnerID, entity.ParticipantStatusRemoved, now); err != nil {
					return err
				}
				partner, err = s.userRepo.GetByIDTx(ctx, tx, partnerID, true)
				if err != nil {
					return err
				}
			}
			event.PendingPairMatchIDs = event.PendingPairMatchIDs.Remove(pair.ID)
			sidelinedPairID = pair.ID
		}

		event.ConfirmationsReceived = entity.CountConfirmations(event.ParticipantStatuses)
		event.Status = entity.DeriveEventStatus(event.ParticipantStatuses, event.FinalVenueOptionID != nil, event.Status)
		if err := s.eventRepo.UpdateTx(ctx, tx, event); err != nil {
			return err
		}

		if user != nil {
			user.PendingEvents = user.PendingEvents.Upsert(userEntity.EventAssignment{
				EventID:   eventID,
				EventType: event.EventType,
				Status:    entity.ParticipantStatusCanceled,
				UpdatedAt: now,
			})
			user.JoinedEvents = user.JoinedEvents.Remove(eventID)
			user.ApplyCancelPenalty(now, constants.CancelBanThreshold, constants.CancelBanDuration)
			if err := s.userRepo.UpdateEventStateTx(ctx, tx, user); err != nil {
				return err
			}
		}
		if partner != nil {
			partner.PendingEvents = partner.PendingEvents.Upsert(userEntity.EventAssignment{
				EventID:   eventID,
				EventType: event.EventType,
				Status:    entity.ParticipantStatusRemoved,
				UpdatedAt: now,
			})
			partner.JoinedEvents = partner.JoinedEvents.Remove(eventID)
			if err := s.userRepo.UpdateEventStateTx(ctx, tx, partner); err != nil {
				return err
			}
		}

		out = event
		return nil
	})
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to cancel participation", err)
	}
	if appErr != nil {
		return nil, appErr
	}

	if sidelinedPairID != "" {
		if err := s.pairRepo.MarkSidelined(ctx, sidelinedPairID); err != nil {
			logger.Error("ParticipationService:CancelParticipation - MarkSidelined", err)
		}
	}
	if removedPartnerID != nil {
		s.notifyRemoval(ctx, *removedPartnerID, out)
	}
	if _, err := s.orchestrator.FillEventVacancies(ctx, out.ID); err != nil {
		logger.Error("ParticipationService:CancelParticipation - FillEventVacancies", err.Err)
	}
	return dto.ToEventResponse(out), nil
}

func (s *ParticipationService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, *errors.AppError) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return dto.ToEventResponse(event), nil
}

func (s *ParticipationService) GetEventsForUser(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError) {
	events, err := s.eventRepo.GetByParticipant(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load events", err)
	}
	return dto.ToEventResponses(events), nil
}

func (s *ParticipationService) GetParticipant(ctx context.Context, eventID string, userID uuid.UUID) (*dto.ParticipantResponse, *errors.AppError) {
	participant, err := s.participantRepo.Get(ctx, entity.ParticipantID(eventID, userID))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load participant", err)
	}
	if participant == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Participant not found", nil)
	}
	return dto.ToParticipantResponse(participant), nil
}

// loadForUpdate locks the event, the caller's participant row and the
// caller's user row for the duration of the transaction.
func (s *ParticipationService) loadForUpdate(ctx context.Context, tx *sqlx.Tx, eventID string, userID uuid.UUID) (*entity.Event, *entity.EventParticipant, *userEntity.User, error) {
	event, err := s.eventRepo.GetByIDTx(ctx, tx, eventID, true)
	if err != nil {
		return nil, nil, nil, err
	}
	if event == nil {
		return nil, nil, nil, nil
	}
	participant, err := s.participantRepo.GetTx(ctx, tx, entity.ParticipantID(eventID, userID), true)
	if err != nil {
		return nil, nil, nil, err
	}
	user, err := s.userRepo.GetByIDTx(ctx, tx, userID, true)
	if err != nil {
		return nil, nil, nil, err
	}
	return event, participant, user, nil
}

func validateEventOpen(event *entity.Event, userID uuid.UUID) *errors.AppError {
	if event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	if event.Status == entity.EventStatusCanceled {
		return errors.NewAppError(errors.ErrInvalidState, "Event is canceled", nil)
	}
	if !event.ParticipantUserIDs.Contains(userID.String()) {
		return errors.NewAppError(errors.ErrForbidden, "User is not part of this event", nil)
	}
	return nil
}

// findPairForUser locates the pair, still attached to the event, that
// contains the user.
func (s *ParticipationService) findPairForUser(ctx context.Context, tx *sqlx.Tx, event *entity.Event, userID uuid.UUID) (*matchingEntity.PairMatch, error) {
	for _, pairID := range event.PendingPairMatchIDs {
		pair, err := s.pairRepo.GetByIDTx(ctx, tx, pairID, true)
		if err != nil {
			return nil, err
		}
		if pair != nil && pair.ContainsUser(userID) {
			return pair, nil
		}
	}
	return nil, nil
}

// detachParticipant moves one participant to a terminal status and
// reverses their vote.
func (s *ParticipationService) detachParticipant(ctx context.Context, tx *sqlx.Tx, event *entity.Event, userID uuid.UUID, status entity.ParticipantStatus, now time.Time) error {
	participant, err := s.participantRepo.GetTx(ctx, tx, entity.ParticipantID(event.ID, userID), true)
	if err != nil {
		return err
	}
	if participant == nil {
		participant = &entity.EventParticipant{
			ID:        entity.ParticipantID(event.ID, userID),
			EventID:   event.ID,
			UserID:    userID,
			CreatedAt: now,
		}
	}

	if participant.VoteVenueOptionID != nil {
		applyVote(event.VenueVoteTotals, participant.VoteVenueOptionID, "")
		event.VotesSubmittedCount--
		participant.VoteVenueOptionID = nil
	}

	participant.Status = status
	if status == entity.ParticipantStatusCanceled {
		participant.CanceledAt = &now
	}
	participant.UpdatedAt = now
	if err := s.participantRepo.UpsertTx(ctx, tx, participant); err != nil {
		return err
	}

	event.ParticipantUserIDs = event.ParticipantUserIDs.Remove(userID.String())
	event.ParticipantStatuses[userID.String()] = status
	return nil
}

func (s *ParticipationService) notifyRemoval(ctx context.Context, userID uuid.UUID, event *entity.Event) {
	err := s.notifier.SendEventNotification(ctx, userID, "Event update",
		"Your pair left "+event.Title+", so you were removed from it.",
		map[string]string{"event_id": event.ID, "type": "pair_removed"})
	if err != nil {
		logger.Error("ParticipationService:notifyRemoval", err)
	}
}

// applyVote moves one vote between venue totals. An empty next clears the
// vote; a nil prev casts a fresh one.
func applyVote(totals entity.VoteTotals, prev *string, next string) {
	if prev != nil {
		if totals[*prev] > 0 {
			totals[*prev]--
		}
	}
	if next != "" {
		totals[next]++
	}
}

// PickWinningVenue returns the option with the most votes; ties fall to
// the option listed first.
func PickWinningVenue(options entity.VenueOptions, totals entity.VoteTotals) *entity.VenueOption {
	var winner *entity.VenueOption
	best := -1
	for i := range options {
		if totals[options[i].ID] > best {
			best = totals[options[i].ID]
			winner = &options[i]
		}
	}
	return winner
}
