package main

import "github.com/wentf9/commkit/cmd"

func main() {
	cmd.Execute()
}
