package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/seanpm2001/atom/internal/atom"
)

// Files expands paths into the definition files they name. Directories
// contribute their .toml, .yaml and .yml entries, sorted by name, without
// recursion.
func Files(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("definition path %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading definition directory %s: %w", p, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, err := FormatOf(e.Name()); err == nil {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// LoadResult describes one LoadInto call.
type LoadResult struct {
	// Files are the definition files read.
	Files []string

	// Added are the names of classes registered for the first time.
	Added []string

	// Replaced are the names of classes that replaced an existing class.
	Replaced []string
}

// Load parses and builds every class defined under paths. Class names
// must be unique across all files.
func Load(paths ...string) ([]*atom.Class, []string, error) {
	files, err := Files(paths...)
	if err != nil {
		return nil, nil, err
	}

	var classes []*atom.Class
	origin := make(map[string]string)
	for _, f := range files {
		doc, err := ParseFile(f)
		if err != nil {
			return nil, nil, err
		}
		built, err := Build(doc)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", f, err)
		}
		for _, c := range built {
			if prev, dup := origin[c.Name()]; dup {
				return nil, nil, fmt.Errorf("%w: %s defined in %s and %s",
					atom.ErrDuplicateClass, c.Name(), prev, f)
			}
			origin[c.Name()] = f
		}
		classes = append(classes, built...)
	}
	return classes, files, nil
}

// LoadInto loads every class under paths and registers them in reg.
// Existing classes with the same name are replaced. Nothing is registered
// if any file fails to load.
func LoadInto(reg *atom.Registry, paths ...string) (*LoadResult, error) {
	if reg == nil {
		return nil, errors.New("schema: nil registry")
	}
	classes, files, err := Load(paths...)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{Files: files}
	for _, c := range classes {
		replaced, err := reg.Replace(c)
		if err != nil {
			return res, err
		}
		if replaced {
			res.Replaced = append(res.Replaced, c.Name())
		} else {
			res.Added = append(res.Added, c.Name())
		}
	}
	return res, nil
}
