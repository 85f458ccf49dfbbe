package handler

import (
	"holochat/internal/app/chat"
	"holochat/internal/app/registry"
	"holochat/internal/app/storage"
	"holochat/internal/app/transfer"
	"holochat/internal/configs"
)

// AppDeps bundles the shared state injected into every transport edge.
// Sessions receive these rather than reaching for ambient globals.
type AppDeps struct {
	Store       *registry.Store
	Hub         *chat.Hub
	Reassembler *transfer.Reassembler
	Archive     storage.ArchiveService // nil when the payload archive is disabled
	Config      *configs.AppConfig
}
