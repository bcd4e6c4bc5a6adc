package main

import "github.com/synnq/sendtx/cmd/sendtx"

func main() {
	sendtx.Execute()
}
