package resource

import (
	"sync"

	"gorm.io/gorm"

	"highlight-service/ddd/infrastructure/database/po"
	"highlight-service/pkg/assert"
	"highlight-service/pkg/config"
	"highlight-service/pkg/manager"
	"highlight-service/pkg/repository"
)

var (
	mysqlResourceOnce sync.Once
	mysqlSingleton    *MysqlResource
)

// MysqlResource manages the lifecycle of the main database pool.
type MysqlResource struct {
	db *repository.Database
}

// DefaultMysqlResource returns the global MySQL resource instance.
func DefaultMysqlResource() *MysqlResource {
	assert.NotCircular()
	mysqlResourceOnce.Do(func() {
		mysqlSingleton = &MysqlResource{}
	})
	assert.NotNil(mysqlSingleton)
	return mysqlSingleton
}

// MustOpen connects the pool and migrates the highlight tables.
func (r *MysqlResource) MustOpen() {
	if r.db != nil {
		return
	}

	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized")
	}

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		panic("failed to connect mysql: " + err.Error())
	}
	if err := db.Self.AutoMigrate(&po.HighlightTask{}, &po.HighlightClip{}, &po.PublishJob{}); err != nil {
		panic("failed to migrate highlight tables: " + err.Error())
	}

	r.db = db
}

// Close shuts the pool down.
func (r *MysqlResource) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// MainDB exposes the gorm handle for the DAO layer.
func (r *MysqlResource) MainDB() *gorm.DB {
	if r.db == nil {
		return nil
	}
	return r.db.Self
}

// MySqlResourcePlugin wires the resource into the manager.
type MySqlResourcePlugin struct{}

// Name identifies the plugin slot.
func (p *MySqlResourcePlugin) Name() string {
	return "mysql"
}

// MustCreateResource returns the singleton MySQL resource for registration.
func (p *MySqlResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultMysqlResource()
}
