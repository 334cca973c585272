package main

import (
	"github.com/guohaomeng/pupil/cmd/pupil-bundler/cmd"
)

func main() {
	cmd.Execute()
}
