package main

import (
	"sav3_backend/internal/app"
)

func main() {
	app.Run()
}
