// Package reference loads the fixed code lists offered by select fields
package reference

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/aethra/misight/internal/schema"
	"gopkg.in/yaml.v3"
)

//go:embed enums/*.yaml
var embedded embed.FS

// Catalog is the set of enum directories keyed by name
type Catalog struct {
	enums map[string]EnumDirectory
}

// Default loads the catalog compiled into the binary
func Default() (*Catalog, error) {
	return LoadEnumCatalog(embedded, "enums")
}

// LoadEnumCatalog reads every *.yaml / *.yml file of dir in fsys
func LoadEnumCatalog(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	result := make(map[string]EnumDirectory)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var enumDir EnumDirectory
		if err := yaml.Unmarshal(data, &enumDir); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		// The directory name comes from the file when not set inside it
		enumName := enumDir.Name
		if enumName == "" {
			enumName = strings.TrimSuffix(name, path.Ext(name))
		}
		sort.SliceStable(enumDir.Items, func(i, j int) bool {
			return enumDir.Items[i].Order < enumDir.Items[j].Order
		})
		result[enumName] = enumDir
	}
	return &Catalog{enums: result}, nil
}

// Names lists the loaded directories
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.enums))
	for n := range c.enums {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Options returns the items of a directory as select options. An unknown name yields nil.
func (c *Catalog) Options(name string) []schema.Option {
	dir, ok := c.enums[name]
	if !ok {
		return nil
	}
	opts := make([]schema.Option, 0, len(dir.Items))
	for _, it := range dir.Items {
		opts = append(opts, schema.Option{Value: it.Code, Label: it.Name})
	}
	return opts
}

// Label returns the display name of code in a directory, or code itself
func (c *Catalog) Label(name, code string) string {
	for _, it := range c.enums[name].Items {
		if it.Code == code {
			return it.Name
		}
	}
	return code
}
