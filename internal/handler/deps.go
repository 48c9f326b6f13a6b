package handler

import (
	"echochat/internal/app/chat"
	"echochat/internal/app/group"
	"echochat/internal/app/storage"
	"echochat/internal/app/store"
	"echochat/internal/configs"
)

// AppDeps bundles the collaborators every handler may need.
type AppDeps struct {
	Hub            *chat.Hub
	Groups         *group.Store
	Users          *store.UserStore
	Messages       *store.MessageStore
	StorageService storage.StorageService
	Config         *configs.AppConfig
}
