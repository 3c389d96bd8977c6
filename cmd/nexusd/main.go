// Command nexusd runs the Nexus application core: every manager wired in
// dependency order, fronted by the REST API when api.enabled is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/nexuscore/nexus/pkg/version"
	"github.com/nexuscore/nexus/system/bootstrap"
	"github.com/nexuscore/nexus/system/core"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON configuration file")
	envPrefix := flag.String("env-prefix", "NEXUS", "prefix for environment variable configuration overlay")
	showVersion := flag.Bool("version", false, "print build information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: strings.TrimSpace(*configPath),
		EnvPrefix:  strings.TrimSpace(*envPrefix),
	})
	if err != nil {
		log.Fatalf("wire application: %v", err)
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("start application: %v", err)
	}

	core.WaitForSignal()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Stop(shutdownCtx); err != nil {
		log.Printf("shutdown completed with errors: %v", err)
		os.Exit(1)
	}
}
