package main

import "videoreview/cmd"

// @title Video Review API
// @version 1.0
// @description Projects, folders, videos, versions and timestamped comments for video review.
// @BasePath /
func main() {
	cmd.Execute()
}
