// Command optcg-stats serves and maintains the One Piece TCG metagame database.
package main

import (
	"os"

	"github.com/ramonehamilton/OPTCG-Meta/cmd/optcg-stats/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
