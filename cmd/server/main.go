package main

import "commissions/internal/app/server"

func main() {
	server.Run()
}
