/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/hrdesk/hri-gin/cmd"

func main() {
	cmd.Execute()
}
