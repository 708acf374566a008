// Command checksettings loads the settings the same way the server does and
// reports whether they are usable. It never connects to any backing service.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fly-starter/internal/config"
	"github.com/iliyamo/fly-starter/internal/version"
)

func main() {
	os.Exit(run(os.Stdout))
}

func run(w io.Writer) int {
	if _, ok := os.LookupEnv(config.SettingsEnv); !ok {
		_ = os.Setenv(config.SettingsEnv, config.DefaultSettings)
	}

	settings, err := config.Setup()
	if err != nil {
		fmt.Fprintf(w, "❌ Error: %v\n", err)
		// %+v prints the stack recorded by pkg/errors
		fmt.Fprintf(w, "%+v\n", err)
		return 1
	}

	fmt.Fprintln(w, "✅ Setup successful!")
	fmt.Fprintf(w, "Echo version: %s\n", echo.Version)
	fmt.Fprintf(w, "App version: %s\n", version.Version)
	fmt.Fprintf(w, "DEBUG: %t\n", settings.Debug)
	fmt.Fprintf(w, "ALLOWED_HOSTS: %q\n", settings.AllowedHosts)
	fmt.Fprintf(w, "Database: %s\n", settings.DefaultDB().Engine)
	return 0
}
