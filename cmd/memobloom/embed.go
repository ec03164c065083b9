package main

import (
	"embed"
	"io/fs"

	"github.com/memobloom/memobloom/internal/server"
)

// The ui directory holds the built web app; a placeholder page ships in the repo.
//
//go:embed all:ui
var uiDist embed.FS

func init() {
	sub, err := fs.Sub(uiDist, "ui")
	if err != nil {
		return
	}
	server.SetUI(sub)
}
