package main

import "accountbot/internal/app"

func main() {
	app.Main()
}
