package main

import "movie-note-core/cmd"

func main() {
	cmd.Execute()
}
