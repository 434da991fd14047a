package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a scenario. It is decoded strictly and
// then converted into a Scenario by convertDocument.
type document struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string   `yaml:"tags,omitempty" json:"tags,omitempty"`
	Cleanup     *regionDoc `yaml:"cleanup,omitempty" json:"cleanup,omitempty"`
	Steps       []stepDoc  `yaml:"steps" json:"steps"`
}

// stepDoc holds the union of every action's fields.
// Which fields are required depends on Do.
type stepDoc struct {
	Label     string     `yaml:"label,omitempty" json:"label,omitempty"`
	Immediate bool       `yaml:"immediate,omitempty" json:"immediate,omitempty"`
	At        *int64     `yaml:"at,omitempty" json:"at,omitempty"`
	After     *int64     `yaml:"after,omitempty" json:"after,omitempty"`
	Do        string     `yaml:"do" json:"do"`
	Pos       []int32    `yaml:"pos,omitempty" json:"pos,omitempty"`
	Block     *blockDoc  `yaml:"block,omitempty" json:"block,omitempty"`
	Is        *blockDoc  `yaml:"is,omitempty" json:"is,omitempty"`
	Region    *regionDoc `yaml:"region,omitempty" json:"region,omitempty"`
	Checks    []checkDoc `yaml:"checks,omitempty" json:"checks,omitempty"`
	Slot      string     `yaml:"slot,omitempty" json:"slot,omitempty"`
	Item      *itemDoc   `yaml:"item,omitempty" json:"item,omitempty"`
	Hotbar    *int       `yaml:"hotbar,omitempty" json:"hotbar,omitempty"`
	Face      string     `yaml:"face,omitempty" json:"face,omitempty"`
}

type regionDoc struct {
	Min []int32 `yaml:"min" json:"min"`
	Max []int32 `yaml:"max" json:"max"`
}

type checkDoc struct {
	Pos []int32   `yaml:"pos" json:"pos"`
	Is  *blockDoc `yaml:"is" json:"is"`
}

// blockDoc accepts either "stone" or {id: stone, properties: {...}}.
type blockDoc struct {
	ID         string            `yaml:"id" json:"id"`
	Properties map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
}

func (b *blockDoc) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		b.ID = value.Value
		return nil
	case yaml.MappingNode:
		var m struct {
			ID         string            `yaml:"id"`
			Properties map[string]string `yaml:"properties"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		b.ID, b.Properties = m.ID, m.Properties
		return nil
	}
	return fmt.Errorf("line %d: block must be a string or a mapping", value.Line)
}

// itemDoc accepts either "stick" or {id: stick, count: 3}.
type itemDoc struct {
	ID    string `yaml:"id" json:"id"`
	Count int    `yaml:"count,omitempty" json:"count,omitempty"`
}

func (i *itemDoc) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		i.ID, i.Count = value.Value, 1
		return nil
	case yaml.MappingNode:
		var m struct {
			ID    string `yaml:"id"`
			Count int    `yaml:"count"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		i.ID, i.Count = m.ID, m.Count
		if i.Count == 0 {
			i.Count = 1
		}
		return nil
	}
	return fmt.Errorf("line %d: item must be a string or a mapping", value.Line)
}
