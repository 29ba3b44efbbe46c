package keymap

import (
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/grovetools/ckanconsole/config"
)

// Overrides maps snake_case binding names to replacement keys.
type Overrides map[string][]string

// LoadOverrides reads tui.keybindings from the configuration.
func LoadOverrides(cfg *config.Config) (Overrides, error) {
	if cfg == nil {
		return nil, nil
	}
	var tuiCfg struct {
		Keybindings Overrides `yaml:"keybindings"`
	}
	if err := cfg.UnmarshalExtension("tui", &tuiCfg); err != nil {
		return nil, err
	}
	return tuiCfg.Keybindings, nil
}

// ApplyOverrides replaces the keys of every key.Binding field of the struct
// km points to, recursing into embedded structs. A field is addressed by its
// `keymap:"name"` tag or, without one, by its snake_cased field name. The
// help text keeps its description and shows the first new key.
//
// It returns the override names that matched no binding, sorted.
func ApplyOverrides(km any, overrides Overrides) (unknown []string) {
	if len(overrides) == 0 {
		return nil
	}

	v := reflect.ValueOf(km)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil
	}

	used := make(map[string]bool, len(overrides))
	apply(v.Elem(), overrides, used)

	for name := range overrides {
		if !used[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

var bindingType = reflect.TypeOf(key.Binding{})

func apply(v reflect.Value, overrides Overrides, used map[string]bool) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field, sf := v.Field(i), t.Field(i)
		if !field.CanSet() {
			continue
		}
		if sf.Anonymous && field.Kind() == reflect.Struct {
			apply(field, overrides, used)
			continue
		}
		if sf.Type != bindingType {
			continue
		}

		name := sf.Tag.Get("keymap")
		if name == "" {
			name = camelToSnake(sf.Name)
		}
		keys, ok := overrides[name]
		if !ok {
			continue
		}
		used[name] = true
		if len(keys) == 0 {
			continue
		}
		desc := field.Interface().(key.Binding).Help().Desc
		field.Set(reflect.ValueOf(key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(keys[0], desc),
		)))
	}
}

// camelToSnake converts CamelCase to snake_case, treating each upper-case
// letter as a word start: ToggleInstall -> toggle_install.
func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
