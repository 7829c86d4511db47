package main

import "github.com/archivio-maledetto/archivio/cmd"

var version = "dev"

func main() {
	cmd.Execute(version)
}
