package main

import "github.com/KaramelBytes/csvcharts/cmd"

func main() {
	cmd.Execute()
}
