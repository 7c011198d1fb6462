package main

import (
	"github.com/savings-vault/vault-cranker/cmd/cranker/cmd"
)

func main() {
	cmd.Execute()
}
