// Command azrelayd runs only the relay server, for container entrypoints
// that do not need the rest of the azrelay CLI.
package main

import (
	"fmt"
	"os"

	servecmder "github.com/papercomputeco/azrelay/cmd/azrelay/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()

	cmd.Use = "azrelayd"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .azrelay/ config directory")

	err := cmd.Execute()
	if err != nil {
		fmt.Printf("Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
