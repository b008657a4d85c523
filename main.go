package main

import "github.com/vbartonek/face-attendance/cmd"

func main() {
	cmd.Execute()
}
