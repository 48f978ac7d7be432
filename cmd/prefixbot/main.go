package main

import (
	"log"

	"github.com/m3rciful/prefixbot/bot"
	"github.com/m3rciful/prefixbot/core/cmd"
)

func main() {
	if err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		Telegram:          bot.RunOptions,
	}); err != nil {
		log.Fatalf("prefixbot: %v", err)
	}
}
