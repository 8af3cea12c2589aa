package config

import (
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// legacyRoundKey is accepted as an alias of the iteration count key.
const (
	legacyRoundKey = "num_round"
	roundKey       = "n_estimators"
)

// KV is one engine parameter as written in the file.
type KV struct {
	Key   string
	Value string
}

// EngineParams keeps engine parameters in document order.
type EngineParams []KV

// UnmarshalYAML decodes a mapping node pair by pair so order survives.
// Values must be scalars; their literal text is kept ("0.30" stays "0.30").
func (p *EngineParams) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Newf("line %d: engine must be a mapping", node.Line)
	}
	out := make(EngineParams, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return errors.Newf("line %d: engine.%s must be a scalar", v.Line, k.Value)
		}
		key := k.Value
		if key == legacyRoundKey {
			key = roundKey
		}
		out = append(out, KV{Key: key, Value: v.Value})
	}
	*p = out
	return nil
}

// MarshalYAML writes the parameters back as an ordered mapping.
func (p EngineParams) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range p {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Value},
		)
	}
	return node, nil
}

// Get returns the last value for key.
func (p EngineParams) Get(key string) (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Key == key {
			return p[i].Value, true
		}
	}
	return "", false
}
