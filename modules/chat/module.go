package chat

import (
	"duet-api/core/database"
	"duet-api/modules/chat/repository"
	"duet-api/modules/chat/service"
)

// Init wires the chat collaborator. No routes of its own; the service is
// consumed by the event module at vote finalization.
func Init(db database.Database) service.ChatServiceInterface {
	repo := repository.NewChatRoomRepository(db)
	return service.NewChatService(repo)
}
