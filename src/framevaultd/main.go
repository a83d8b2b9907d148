package main

import "github.com/frame-vault/framevault/src/framevaultd/cmd"

func main() {
	cmd.Execute()
}
