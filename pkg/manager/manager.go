package manager

import (
	"sync"

	"github.com/gin-gonic/gin"

	"highlight-service/pkg/logger"
)

// Resource is an external dependency with an open/close lifecycle.
type Resource interface {
	MustOpen()
	Close()
}

// ResourcePlugin contributes a Resource at startup.
type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

// Component is a background unit started after resources and services.
type Component interface {
	Start() error
	Stop() error
	GetName() string
}

// ComponentPlugin builds a Component from the dependency container.
type ComponentPlugin interface {
	Name() string
	MustCreateComponent(deps *Dependencies) Component
}

// Controller contributes HTTP routes once the engine exists.
type Controller interface {
	RegisterRoutes(engine *gin.Engine)
}

// ControllerPlugin builds a Controller from the dependency container.
type ControllerPlugin interface {
	Name() string
	MustCreateController(deps *Dependencies) Controller
}

var (
	mu                sync.Mutex
	resourcePlugins   []ResourcePlugin
	componentPlugins  []ComponentPlugin
	controllerPlugins []ControllerPlugin

	openedResources []Resource
	controllers     []Controller
	components      []Component
)

// RegisterResourcePlugin queues a resource for MustInitResources. Called from
// package init functions, before main runs.
func RegisterResourcePlugin(p ResourcePlugin) {
	if p == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	resourcePlugins = append(resourcePlugins, p)
}

// RegisterComponentPlugin queues a component for MustInitComponents.
func RegisterComponentPlugin(p ComponentPlugin) {
	if p == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	componentPlugins = append(componentPlugins, p)
}

// RegisterControllerPlugin queues a controller for MustInitServices.
func RegisterControllerPlugin(p ControllerPlugin) {
	if p == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	controllerPlugins = append(controllerPlugins, p)
}

// MustInitResources opens every registered resource in registration order.
// A resource that cannot open panics, the process is useless without it.
func MustInitResources() {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range resourcePlugins {
		res := p.MustCreateResource()
		res.MustOpen()
		openedResources = append(openedResources, res)
		logger.Infof("resource opened name=%s", p.Name())
	}
}

// CloseResources closes resources in reverse open order.
func CloseResources() {
	mu.Lock()
	defer mu.Unlock()
	for i := len(openedResources) - 1; i >= 0; i-- {
		openedResources[i].Close()
	}
	openedResources = nil
}

// MustInitServices builds the controllers. Routes mount later through
// RegisterAllRoutes once the gin engine exists.
func MustInitServices(deps *Dependencies) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range controllerPlugins {
		controllers = append(controllers, p.MustCreateController(deps))
		logger.Infof("controller initialized name=%s", p.Name())
	}
}

// MustInitComponents builds and starts the components in registration order.
func MustInitComponents(deps *Dependencies) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range componentPlugins {
		c := p.MustCreateComponent(deps)
		if err := c.Start(); err != nil {
			panic("failed to start component " + c.GetName() + ": " + err.Error())
		}
		components = append(components, c)
		logger.Infof("component started name=%s", c.GetName())
	}
}

// RegisterAllRoutes mounts every initialized controller on the engine.
func RegisterAllRoutes(engine *gin.Engine) {
	mu.Lock()
	defer mu.Unlock()
	for _, c := range controllers {
		c.RegisterRoutes(engine)
	}
}

// Shutdown stops components in reverse start order.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	for i := len(components) - 1; i >= 0; i-- {
		if err := components[i].Stop(); err != nil {
			logger.Warnf("component stop failed name=%s error=%v", components[i].GetName(), err)
		}
	}
	components = nil
	controllers = nil
}
