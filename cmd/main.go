package main

import (
	"fmt"
	"os"

	"github.com/nordiska/pricewatch-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Log.Info("Starting server...", "addr", a.Cfg.HTTPAddr)
	if err := a.Run(); err != nil {
		a.Log.Fatal("Server exited", "error", err)
	}
}
