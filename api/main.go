package main

import (
	"github.com/joho/godotenv"

	"github.com/awslabs/osml-model-runner-sub000/api/cmd/modelrunner"
)

func main() {
	_ = godotenv.Load()
	modelrunner.Execute()
}
