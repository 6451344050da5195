package main

import "github.com/DYAI2025/stoppclock/cmd"

func main() {
	cmd.Execute()
}
