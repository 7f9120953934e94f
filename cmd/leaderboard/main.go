package main

import "sales-leaderboard/internal/cli"

func main() {
	cli.Execute()
}
