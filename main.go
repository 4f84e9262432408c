package main

import (
	"highlight-service/app"
	"highlight-service/pkg/observability"
)

func main() {
	observability.StartProfiling("highlight-service")
	app.Run()
}
