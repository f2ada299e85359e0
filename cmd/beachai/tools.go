package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Cyclone1070/beachai/internal/adapter"
	"github.com/Cyclone1070/beachai/internal/tool"
)

// ToolsCmd prints the declarations offered to the model.
// With -n only that tool is printed.
type ToolsCmd struct {
	Name string `short:"n" long:"name" description:"print only this tool"`
}

func (c *ToolsCmd) Execute(_ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := adapter.NewRegistry(cfg.APIs)
	if err != nil {
		return err
	}
	return printTools(os.Stdout, reg, c.Name)
}

func printTools(w io.Writer, reg *tool.Registry, name string) error {
	var out any = reg.Declarations()
	if name != "" {
		spec, err := reg.Resolve(name)
		if err != nil {
			return fmt.Errorf("%w (available: %v)", err, reg.Names())
		}
		out = spec.Declaration()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
