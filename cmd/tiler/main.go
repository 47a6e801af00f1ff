// Command tiler cuts GeoJSON layers into a vector tile pyramid and writes
// every tile between the configured zooms to files or an sqlite database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/RoninZc/tiler/config"
)

func main() {
	initFlag()
	initSafeExit()

	conf, err := config.Load(configPath, pflag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	if log, err = newLogger(conf.Output); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
	log.Infof("%s %s", conf.App.Title, conf.App.Version)

	bp, err := openBreakPoint(conf)
	if err != nil {
		log.Fatal(err)
	}
	safeExitInst.Register(bp.Close)
	if n := bp.Len(); n > 0 {
		log.Infof("resuming, %d tiles already saved", n)
	}

	err = runTask(conf, bp)
	bp.Close()
	if err != nil {
		log.Fatal(err)
	}
}
