package main

import (
	"highlight-service/app"
	"highlight-service/pkg/observability"
)

// Standalone publish scheduler. Polls the publish job table and dispatches
// due jobs to the configured platforms.
func main() {
	observability.StartProfiling("highlight-scheduler")
	app.RunScheduler()
}
