package resource

import "highlight-service/pkg/manager"

func init() {
	manager.RegisterResourcePlugin(&MySqlResourcePlugin{})
	manager.RegisterResourcePlugin(&RedisResourcePlugin{})
	manager.RegisterResourcePlugin(&MinioResourcePlugin{})
	manager.RegisterResourcePlugin(&KafkaResourcePlugin{})
}
