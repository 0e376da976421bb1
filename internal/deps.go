package internal

import (
	"landrop/share-api/internal/service"
	"landrop/share-api/pkg/security"
	"landrop/share-api/storage"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Store    *storage.Store
	Identity *security.Identity
	Files    *service.Files
	Devices  *service.Devices
	Keys     *service.APIKeys
	Share    *service.Share
	Sweeper  *service.Sweeper
}
