package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

var (
	hf         bool
	configPath string
)

func initFlag() {
	pflag.BoolVarP(&hf, "help", "h", false, "this help")
	pflag.StringVarP(&configPath, "config", "c", "./conf/conf.toml", "set config `file`")
	pflag.StringP("level", "l", "info", "set log level, overrides output.logLevel")
	pflag.Usage = usage
	pflag.Parse()

	if hf {
		pflag.Usage()
		os.Exit(0)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `tiler version: tiler/v0.2.0
Usage: tiler [-h] [-c filename] [-l logLevel]
`)
	pflag.PrintDefaults()
}
