package worker

import "highlight-service/pkg/manager"

func init() {
	manager.RegisterComponentPlugin(&HighlightWorkerComponentPlugin{})
}
