// Prints a credential digest for a secret, using the configured bcrypt cost.
// Usage: go run ./cmd/genhash <secret>
package main

import (
	"fmt"
	"os"

	"github.com/Ranjel272/POSBF/internal/credential"

	"github.com/spf13/viper"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <secret>")
		os.Exit(2)
	}
	viper.AutomaticEnv()
	viper.SetDefault("BCRYPT_COST", 12)

	h, err := credential.NewBcryptHasher(viper.GetInt("BCRYPT_COST")).Hash(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(h)
}
