package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/panel/internal/config"
)

func runConfig() {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cfgPath := fs.String("config", config.ConfigPath(), "Config file")
	initFile := fs.Bool("init", false, "Write the default config if the file doesn't exist")
	fs.Parse(os.Args[1:])

	if *initFile {
		if _, err := os.Stat(*cfgPath); err == nil {
			fatal("%s already exists", *cfgPath)
		} else if !errors.Is(err, os.ErrNotExist) {
			fatal("stat %s: %v", *cfgPath, err)
		}
		if err := config.DefaultConfig().Save(*cfgPath); err != nil {
			fatal("write config: %v", err)
		}
		fmt.Printf("wrote %s\n", *cfgPath)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal("%v", err)
	}
	fixes := cfg.Validate()

	out, err := yaml.Marshal(cfg)
	if err != nil {
		fatal("encode config: %v", err)
	}
	fmt.Printf("# %s (with environment overrides)\n", *cfgPath)
	for _, fix := range fixes {
		fmt.Printf("# fixed: %s\n", fix)
	}
	fmt.Print(string(out))
}
