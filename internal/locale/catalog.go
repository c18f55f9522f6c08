// internal/locale/catalog.go
//
// Loads the embedded locale catalogs (assets/locales/*.yaml).
//
// File format:
//   locale:      language code (en, ckb-iq, ar)
//   name:        English display name
//   native_name: display name in the language itself
//   flag:        emoji or image reference for the language picker
//   messages:    key -> message map
//
// Catalogs are parsed once per process (sync.Once) and shared read-only.

package locale

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/pointbattle/assets"
)

type catalogFile struct {
	Locale     string            `yaml:"locale"`
	Name       string            `yaml:"name"`
	NativeName string            `yaml:"native_name"`
	Flag       string            `yaml:"flag"`
	Messages   map[string]string `yaml:"messages"`
}

// catalog is one parsed locale.
type catalog struct {
	lang     Language
	tag      language.Tag
	messages map[string]string
}

var (
	catalogsOnce sync.Once
	catalogs     []*catalog // base locale first
	catalogsErr  error
)

// loadCatalogs parses the embedded catalogs exactly once.
func loadCatalogs() ([]*catalog, error) {
	catalogsOnce.Do(func() {
		catalogs, catalogsErr = parseCatalogs()
	})
	return catalogs, catalogsErr
}

func parseCatalogs() ([]*catalog, error) {
	files, err := assets.LocaleFiles()
	if err != nil {
		return nil, fmt.Errorf("list locale catalogs: %w", err)
	}

	var out []*catalog
	for _, f := range files {
		data, err := assets.Read(f)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", f, err)
		}
		c, err := parseCatalog(f, data)
		if err != nil {
			return nil, err
		}
		if c.lang.Code == BaseLanguage {
			out = append([]*catalog{c}, out...)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 || out[0].lang.Code != BaseLanguage {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLanguage)
	}
	return out, nil
}

func parseCatalog(name string, data []byte) (*catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", name, err)
	}

	code := strings.ToLower(strings.TrimSpace(file.Locale))
	if code == "" {
		return nil, fmt.Errorf("catalog %s: locale is required", name)
	}
	if want := strings.TrimSuffix(path.Base(name), path.Ext(name)); code != want {
		return nil, fmt.Errorf("catalog %s: locale %q must match file name %q", name, code, want)
	}
	if file.Messages == nil {
		return nil, fmt.Errorf("catalog %s: messages map is required", name)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: parse locale tag %q: %w", name, code, err)
	}

	messages := make(map[string]string, len(file.Messages))
	for k, v := range file.Messages {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("catalog %s: message key cannot be blank", name)
		}
		messages[k] = v
	}

	return &catalog{
		lang: Language{
			Code:        code,
			Name:        file.Name,
			NativeName:  file.NativeName,
			Flag:        file.Flag,
			RightToLeft: isRightToLeft(tag),
		},
		tag:      tag,
		messages: messages,
	}, nil
}

// isRightToLeft reports whether the language is written right to left.
func isRightToLeft(tag language.Tag) bool {
	base, _ := tag.Base()
	switch base.String() {
	case "ar", "ckb":
		return true
	}
	return false
}
