package main

import (
	"highlight-service/app"
	"highlight-service/pkg/observability"
)

// Standalone pipeline worker. Consumes task submissions from Kafka and drains
// the shared queue without exposing the public HTTP API.
func main() {
	observability.StartProfiling("highlight-worker")
	app.RunWorker()
}
