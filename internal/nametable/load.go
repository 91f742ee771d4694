package nametable

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matthiasprobst/hdfconv/internal/units"
)

// document mirrors the YAML shape of a name-table file. The standard_names
// mapping is decoded from the raw node so the document order of entries
// survives into Table.Names().
type document struct {
	Name          string                       `yaml:"name"`
	Version       string                       `yaml:"version"`
	Affixes       map[string]map[string]string `yaml:"affixes"`
	StandardNames yaml.Node                    `yaml:"standard_names"`
}

// documentEntry is one value of the standard_names mapping.
type documentEntry struct {
	Units       string   `yaml:"units"`
	Description string   `yaml:"description"`
	Affixable   []string `yaml:"affixable"`
	Vector      bool     `yaml:"vector"`
}

// FromReader builds a table from a YAML name-table document.
func FromReader(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading name table document: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing name table document: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("name table document is missing a 'name' key")
	}

	entries, err := decodeEntries(&doc.StandardNames)
	if err != nil {
		return nil, fmt.Errorf("name table %q: %w", doc.Name, err)
	}

	var affixes []Affix
	for family, prefixes := range doc.Affixes {
		for prefix, meaning := range prefixes {
			affixes = append(affixes, Affix{Family: family, Prefix: prefix, Meaning: meaning})
		}
	}

	return New(doc.Name, doc.Version, entries, affixes)
}

// FromFile builds a table from a local YAML document.
func FromFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening name table document: %w", err)
	}
	defer f.Close()
	return FromReader(f)
}

// DefaultFetchTimeout bounds remote name-table fetches. Fetching happens
// once at construction time, never on the per-call validation path.
const DefaultFetchTimeout = 30 * time.Second

// FromURL fetches a YAML document over HTTP(S) and builds a table from it.
// A nil client gets a default one with DefaultFetchTimeout.
func FromURL(url string, client *http.Client) (*Table, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching name table from %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching name table from %s: unexpected status %s", url, resp.Status)
	}
	return FromReader(resp.Body)
}

// decodeEntries walks the standard_names mapping node pairwise so entries
// keep their document order.
func decodeEntries(n *yaml.Node) ([]Entry, error) {
	if n.Kind == 0 || n.IsZero() {
		return nil, fmt.Errorf("document has no standard_names mapping")
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("standard_names must be a mapping, got %s", nodeKind(n))
	}

	var entries []Entry
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]

		var de documentEntry
		if err := valNode.Decode(&de); err != nil {
			return nil, fmt.Errorf("entry %q: %w", keyNode.Value, err)
		}
		if _, err := units.Parse(de.Units); err != nil {
			return nil, fmt.Errorf("entry %q: canonical unit: %w", keyNode.Value, err)
		}

		affixable := de.Affixable
		if de.Vector && !contains(affixable, "component") {
			affixable = append(affixable, "component")
		}
		entries = append(entries, Entry{
			Name:        keyNode.Value,
			Unit:        de.Units,
			Description: de.Description,
			Affixable:   affixable,
		})
	}
	return entries, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "unknown node"
	}
}
