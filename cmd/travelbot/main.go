// Command travelbot runs the travel assistant Telegram bot.
package main

import (
	"log"

	corecmd "github.com/m3rciful/travelbot/core/cmd"
	"github.com/m3rciful/travelbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
