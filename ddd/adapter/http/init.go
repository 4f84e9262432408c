package http

import "highlight-service/pkg/manager"

func init() {
	manager.RegisterControllerPlugin(&HighlightTaskControllerPlugin{})
	manager.RegisterControllerPlugin(&PublishControllerPlugin{})
	manager.RegisterControllerPlugin(&WorkerControllerPlugin{})
}
