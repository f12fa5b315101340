package main

import "github.com/masmgr/gitwho2blame-go/cmd"

func main() {
	cmd.Run()
}
