package content

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var dataExtensions = []string{".json", ".yaml", ".yml"}

// readDataFile decodes a JSON or YAML data file into a map.
func readDataFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &out)
	} else {
		err = yaml.Unmarshal(raw, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// LoadGlobalData reads every data file in dir. Each file is exposed under its
// base name without extension. A missing dir yields an empty map.
func LoadGlobalData(dir string) (map[string]any, error) {
	global := map[string]any{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return global, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !isDataFile(e.Name()) {
			continue
		}
		data, err := readDataFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		global[name] = data
	}
	return global, nil
}

func isDataFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range dataExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// dirDataCache memoizes directory data files by directory.
type dirDataCache struct {
	root  string
	cache map[string]map[string]any
}

func newDirDataCache(root string) *dirDataCache {
	return &dirDataCache{root: root, cache: make(map[string]map[string]any)}
}

// forDir returns the data of <dir>/<dirname>.{json,yaml,yml}, or nil.
func (c *dirDataCache) forDir(relDir string) (map[string]any, error) {
	if d, ok := c.cache[relDir]; ok {
		return d, nil
	}
	base := filepath.Base(relDir)
	var found map[string]any
	for _, ext := range dataExtensions {
		p := filepath.Join(c.root, relDir, base+ext)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		d, err := readDataFile(p)
		if err != nil {
			return nil, err
		}
		found = d
		break
	}
	c.cache[relDir] = found
	return found, nil
}

// cascade merges directory data from the outermost directory inwards and
// then the page's own fields. Later layers win, except tags which
// accumulate.
func (c *dirDataCache) cascade(relPath string, fields map[string]any) (map[string]any, error) {
	merged := map[string]any{}
	var tags []string

	var dirs []string
	if dir := filepath.ToSlash(filepath.Dir(relPath)); dir != "." {
		dirs = strings.Split(dir, "/")
	}
	for i := range dirs {
		d, err := c.forDir(filepath.Join(dirs[:i+1]...))
		if err != nil {
			return nil, err
		}
		if d == nil {
			continue
		}
		tags = appendTags(tags, d["tags"])
		maps.Copy(merged, d)
	}
	tags = appendTags(tags, fields["tags"])
	maps.Copy(merged, fields)
	if len(tags) > 0 {
		merged["tags"] = tags
	} else {
		delete(merged, "tags")
	}
	return merged, nil
}

// appendTags accepts a string or a list of strings.
func appendTags(tags []string, v any) []string {
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		for _, t := range tags {
			if t == s {
				return
			}
		}
		tags = append(tags, s)
	}
	switch vv := v.(type) {
	case string:
		add(vv)
	case []string:
		for _, s := range vv {
			add(s)
		}
	case []any:
		for _, s := range vv {
			add(fmt.Sprint(s))
		}
	}
	return tags
}

// intValue converts a decoded number to an int. Strings holding integers are
// accepted as well.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && strings.TrimSpace(s) != ""
}
