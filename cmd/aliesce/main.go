package main

import (
	"aliesce/pkg/runner"

	chassis "github.com/ai8future/chassis-go/v5"
)

func main() {
	chassis.RequireMajor(5)
	r := runner.New()
	r.RunAndExit()
}
