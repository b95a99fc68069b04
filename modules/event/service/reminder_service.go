package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"duet-api/core/constants"
	"duet-api/core/errors"
	"duet-api/core/logger"
	"duet-api/modules/event/entity"
	"duet-api/modules/event/repository"
)

// ReminderService sends the pre-event confirm-or-cancel reminder.
type ReminderService struct {
	eventRepo repository.EventRepositoryInterface
	notifier  Notifier
}

type ReminderServiceInterface interface {
	SendUpcomingEventReminders(ctx context.Context) (int, *errors.AppError)
}

func NewReminderService(eventRepo repository.EventRepositoryInterface, notifier Notifier) ReminderServiceInterface {
	return &ReminderService{eventRepo: eventRepo, notifier: notifier}
}

// ReminderWindow is the slice of time a reminder run covers: events whose
// date falls roughly two days out. The window is wider than the run
// interval so a skipped run cannot silently drop an event.
func ReminderWindow(now time.Time) (time.Time, time.Time) {
	start := now.Add(constants.ReminderLeadTime)
	return start, start.Add(constants.ReminderWindowSize)
}

// SendUpcomingEventReminders reminds every joined participant of each ready
// event inside the window, then marks the event reminded. One failing event
// never blocks the rest. Returns the number of events processed.
func (s *ReminderService) SendUpcomingEventReminders(ctx context.Context) (int, *errors.AppError) {
	start, end := ReminderWindow(time.Now())
	events, err := s.eventRepo.GetRemindableInWindow(ctx, start, end)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrInternalServer, "Failed to load remindable events", err)
	}

	processed := 0
	for i := range events {
		if err := s.remindEvent(ctx, &events[i]); err != nil {
			logger.Error("ReminderService:SendUpcomingEventReminders - "+events[i].ID, err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *ReminderService) remindEvent(ctx context.Context, event *entity.Event) error {
	venueName := ""
	if event.FinalVenueOptionID != nil {
		if venue := event.VenueOptions.ByID(*event.FinalVenueOptionID); venue != nil {
			venueName = venue.Name
		}
	}

	body := fmt.Sprintf("%s is coming up on %s", event.Title, event.Date.Format("Monday, Jan 2"))
	if venueName != "" {
		body += " at " + venueName
	}
	body += ". Confirm you are still in, or cancel to free your spot."

	for _, id := range event.JoinedParticipantIDs() {
		userID, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		err = s.notifier.SendEventNotification(ctx, userID, "Upcoming event reminder", body, map[string]string{
			"event_id": event.ID,
			"type":     "event_reminder",
		})
		if err != nil {
			logger.Error("ReminderService:remindEvent - "+id, err)
		}
	}

	return s.eventRepo.MarkReminderSent(ctx, event.ID)
}
