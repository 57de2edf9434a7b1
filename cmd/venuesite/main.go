package main

import "github.com/venuehall/venuesite/cmd/venuesite/cmd"

func main() {
	cmd.Execute()
}
