package main

import "github.com/KaramelBytes/ecomenu/cmd"

func main() {
	cmd.Execute()
}
