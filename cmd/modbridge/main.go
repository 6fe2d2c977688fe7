package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"
)

func main() {
	Execute()
}
