package manager

import (
	"gorm.io/gorm"

	"highlight-service/pkg/config"
)

// Dependencies is the injection container handed to component and controller
// plugins. App services are held as interface{} so manager stays import-cycle
// free; plugins type-assert to the concrete application interfaces.
type Dependencies struct {
	DB     *gorm.DB
	Config *config.Config

	HighlightAppService interface{}
	PublishAppService   interface{}
}
