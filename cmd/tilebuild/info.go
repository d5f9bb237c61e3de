package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"slices"

	"github.com/akarpov/go-tilebuild/mb"
	"github.com/google/subcommands"
)

type infoCmd struct {
	inputPath string
}

func (c *infoCmd) Name() string     { return "info" }
func (c *infoCmd) Synopsis() string { return "show tile count and metadata of an mbtiles file" }
func (c *infoCmd) Usage() string {
	return "tilebuild info -i <path>\n"
}
func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input mbtiles file path")
}

func (c *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	reader, err := mb.NewReader(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer reader.Close()

	count, err := reader.CountTiles()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	metadata, err := reader.ReadMetadata()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	fmt.Printf("tiles: %d\n", count)
	names := make([]string, 0, len(metadata))
	for name := range metadata {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("%s: %s\n", name, metadata[name])
	}

	return subcommands.ExitSuccess
}
