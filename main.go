package main

import "doctors-portal/cmd"

func main() {
	cmd.Execute()
}
