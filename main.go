package main

import "github.com/Mohsinsiddi/omnes/cmd"

func main() {
	cmd.Execute()
}
