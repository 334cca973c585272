package main

import (
	"github.com/guohaomeng/pupil/cmd/pupil-verify/cmd"
)

func main() {
	cmd.Execute()
}
