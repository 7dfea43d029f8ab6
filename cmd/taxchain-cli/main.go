package main

import "github.com/ismaelmkumbi/smarttaxchain-sub004/cli/cmd"

func main() {
	cmd.Execute()
}
