package main

import (
	"recipe-scraper/cmd/recipe-scraper/commands"
	"recipe-scraper/internal/components/osutil"
	"recipe-scraper/internal/components/telemetry"
)

func main() {
	// until the config names a log file, logs only go to stderr
	telemetry.InitSlog(nil, false)
	commands.ExecuteContext(osutil.SignalContext())
}
