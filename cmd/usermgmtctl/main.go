package main

import "github.com/cirestech/usermgmt/cmd/usermgmtctl/cmd"

func main() {
	cmd.Execute()
}
