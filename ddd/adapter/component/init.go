package component

import "highlight-service/pkg/manager"

func init() {
	manager.RegisterComponentPlugin(&HighlightTaskConsumerPlugin{})
}
