package parsers

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/shared"
	"gopkg.in/yaml.v3"
)

//go:embed playlists.example.yaml
var exampleConf []byte

// ExampleConfig returns the annotated example playlist configuration.
func ExampleConfig() []byte {
	return append([]byte(nil), exampleConf...)
}

// CreateConfigFile writes the example playlist configuration to path. An existing file is never overwritten.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("playlist config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write playlist config file: %w", err)
	}

	return nil
}

// Config is a parsed playlist configuration. Entries keep the order they were declared in.
type Config struct {
	Entries []Entry
}

// Entry is one top-level parser section: its registry key and its undecoded options.
type Entry struct {
	Key  string
	Node *yaml.Node
}

// Keys returns the parser names in declaration order.
func (c *Config) Keys() []string {
	keys := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		keys[i] = e.Key
	}
	return keys
}

// LoadConfig reads a playlist configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist config file: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses a playlist configuration document. An empty document yields no entries.
func ParseConfig(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	cfg := &Config{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return cfg, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return cfg, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must map parser names to options (line %d)", shared.ErrInvalidConfig, root.Line)
	}

	seen := make(map[string]bool)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if seen[key] {
			return nil, fmt.Errorf("%w: parser %s declared twice (line %d)", shared.ErrInvalidConfig, key, root.Content[i].Line)
		}
		seen[key] = true
		cfg.Entries = append(cfg.Entries, Entry{Key: key, Node: root.Content[i+1]})
	}
	return cfg, nil
}

// common holds the options every parser accepts.
type common struct {
	Name    string
	Enabled bool
	Merge   collection.MergePolicy
}

// fieldDecoder decodes one option value.
type fieldDecoder func(node *yaml.Node) error

// decodeFields walks a parser's option mapping, dispatching each key to its decoder. Unknown keys
// are configuration errors. A null section is treated as empty.
func decodeFields(parser string, node *yaml.Node, c *common, fields map[string]fieldDecoder) error {
	c.Name = parser
	c.Enabled = true

	if node == nil || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null") {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return &ConfigurationError{Parser: parser, Field: "options", Value: nodeValue(node)}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "name":
			s, err := scalarString(parser, key, value)
			if err != nil {
				return err
			}
			if strings.TrimSpace(s) == "" {
				return &ConfigurationError{Parser: parser, Field: key, Value: s, Reason: "name must not be empty"}
			}
			c.Name = strings.TrimSpace(s)
		case "enabled":
			var b bool
			if value.ShortTag() != "!!bool" || value.Decode(&b) != nil {
				return &ConfigurationError{Parser: parser, Field: key, Value: nodeValue(value)}
			}
			c.Enabled = b
		case "merge":
			s, err := scalarString(parser, key, value)
			if err != nil {
				return err
			}
			policy, err := collection.ParseMergePolicy(s)
			if err != nil {
				return &ConfigurationError{Parser: parser, Field: key, Value: s, Reason: err.Error()}
			}
			c.Merge = policy
		default:
			decode, ok := fields[key]
			if !ok {
				return &ConfigurationError{Parser: parser, Field: key, Value: nodeValue(value), Reason: "unknown option"}
			}
			if err := decode(value); err != nil {
				return err
			}
		}
	}
	return nil
}

func scalarString(parser, field string, node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!str" {
		return "", &ConfigurationError{Parser: parser, Field: field, Value: nodeValue(node)}
	}
	return node.Value, nil
}

// stringList decodes a sequence of strings. A null node is an empty list.
func stringList(parser, field string, node *yaml.Node) ([]string, error) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, &ConfigurationError{Parser: parser, Field: field, Value: nodeValue(node)}
	}
	out := make([]string, 0, len(node.Content))
	for i, item := range node.Content {
		s, err := scalarString(parser, fmt.Sprintf("%s[%d]", field, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// nodeValue decodes node into its natural Go value so errors can name the offending type.
func nodeValue(node *yaml.Node) any {
	var v any
	if err := node.Decode(&v); err != nil {
		return node.Value
	}
	return v
}
