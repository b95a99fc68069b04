package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	coreEntity "duet-api/core/entity"
	"duet-api/core/logger"
	"duet-api/core/params"
	"duet-api/core/utils"
	"duet-api/modules/notification/dto"
	"duet-api/modules/notification/entity"
	"duet-api/modules/notification/repository"
)

type NotificationService struct {
	repo repository.NotificationRepositoryInterface
}

type NotificationServiceInterface interface {
	Create(ctx context.Context, req *dto.CreateNotificationRequest) error
	SendEventNotification(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error
	GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error)
	MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

func NewNotificationService(repo repository.NotificationRepositoryInterface) NotificationServiceInterface {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	notif := &entity.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Data:    entity.JSONB(req.Data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			ID:        utils.GenerateID(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	return s.repo.Create(ctx, notif)
}

// SendEventNotification records an event push for one user. Fire and
// forget: delivery problems are logged and never bubble up to the event
// write that triggered them.
func (s *NotificationService) SendEventNotification(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	payload := make(map[string]interface{}, len(data))
	for k, v := range data {
		payload[k] = v
	}

	notificationType := "event"
	if t, ok := data["type"]; ok {
		notificationType = t
	}

	err := s.Create(ctx, &dto.CreateNotificationRequest{
		UserID:  userID,
		Title:   title,
		Message: body,
		Type:    notificationType,
		Data:    payload,
	})
	if err != nil {
		logger.Error("NotificationService:SendEventNotification", err)
	}
	return err
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
