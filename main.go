package main

import "github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/cmd"

func main() {
	cmd.Execute()
}
