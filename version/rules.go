package version

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"
	"gopkg.in/yaml.v3"

	"github.com/dannythehacker/Amulet-Core/block"
	"github.com/dannythehacker/Amulet-Core/chunk"
)

// BlockRule is one table-driven block mapping. Rules of this kind cover
// context-free 1:1 translations; anything that inspects neighbours needs a
// custom BlockConverter.
type BlockRule struct {
	// Name is the target namespaced name, e.g. "universal_minecraft:stone".
	Name string `yaml:"name"`
	// CopyProperties carries the source block's properties over to the
	// target before overrides are applied.
	CopyProperties bool `yaml:"copy_properties"`
	// Properties are fixed property overrides on the target block.
	Properties map[string]any `yaml:"properties"`
	// BlockEntity, when set, is the namespaced name of a block entity to
	// create at every position the source block occupies.
	BlockEntity string `yaml:"block_entity"`
	// NeedsContext marks the rule as requiring neighbour context, deferring
	// it to the engine's per-position pass.
	NeedsContext bool `yaml:"needs_context"`
}

// RuleSet is a YAML-loadable rule table implementing BlockConverter and
// BiomeConverter. Unmatched blocks translate to nothing and unmatched biome
// ids pass through unchanged.
type RuleSet struct {
	Platform string `yaml:"platform"`
	Number   Number `yaml:"number"`

	BlockRules struct {
		ToUniversal   map[string]BlockRule `yaml:"to_universal"`
		FromUniversal map[string]BlockRule `yaml:"from_universal"`
	} `yaml:"blocks"`

	BiomeRules struct {
		ToUniversal   map[uint32]uint32 `yaml:"to_universal"`
		FromUniversal map[uint32]uint32 `yaml:"from_universal"`
	} `yaml:"biomes"`

	// BlockEntities maps raw base names to namespaced pretty names.
	BlockEntities map[string]string `yaml:"block_entities"`
}

// LoadRuleSet parses a rule set from YAML.
func LoadRuleSet(r io.Reader) (*RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	rs := &RuleSet{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}
	return rs, nil
}

// LoadRuleSetFile parses a rule set from a YAML file.
func LoadRuleSetFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule set: %w", err)
	}
	defer f.Close()
	return LoadRuleSet(f)
}

// Key returns the version key the rule set describes.
func (rs *RuleSet) Key() Key {
	return Key{Platform: rs.Platform, Number: rs.Number}
}

// Version assembles a Version backed by this rule table.
func (rs *RuleSet) Version() *Version {
	inverse := make(map[string]string, len(rs.BlockEntities))
	for raw, pretty := range rs.BlockEntities {
		inverse[pretty] = raw
	}
	v := &Version{
		Blocks: ruleBlocks{rs},
		Biomes: ruleBiomes{rs},
	}
	if len(rs.BlockEntities) > 0 {
		v.BlockEntityMap = rs.BlockEntities
		v.BlockEntityMapInverse = inverse
	}
	return v
}

// ruleBlocks adapts a rule table to BlockConverter.
type ruleBlocks struct{ rs *RuleSet }

func (r ruleBlocks) ToUniversal(b *block.Block, get GetBlockFunc) (Output, *chunk.BlockEntity, bool) {
	return applyBlockRule(r.rs.BlockRules.ToUniversal, b)
}

func (r ruleBlocks) FromUniversal(b *block.Block, get GetBlockFunc) (Output, *chunk.BlockEntity, bool) {
	return applyBlockRule(r.rs.BlockRules.FromUniversal, b)
}

// ruleBiomes adapts a rule table to BiomeConverter. Unmapped ids pass
// through unchanged.
type ruleBiomes struct{ rs *RuleSet }

func (r ruleBiomes) ToUniversal(id uint32) uint32 {
	if mapped, ok := r.rs.BiomeRules.ToUniversal[id]; ok {
		return mapped
	}
	return id
}

func (r ruleBiomes) FromUniversal(id uint32) uint32 {
	if mapped, ok := r.rs.BiomeRules.FromUniversal[id]; ok {
		return mapped
	}
	return id
}

func applyBlockRule(rules map[string]BlockRule, b *block.Block) (Output, *chunk.BlockEntity, bool) {
	rule, ok := rules[b.NamespacedName()]
	if !ok {
		return NoOutput(), nil, false
	}

	ns, name := splitIdent(rule.Name)
	var props map[string]any
	if rule.CopyProperties {
		props = b.Properties()
	}
	if len(rule.Properties) > 0 {
		if props == nil {
			props = make(map[string]any, len(rule.Properties))
		}
		for k, v := range rule.Properties {
			props[k] = v
		}
	}
	out := block.New(ns, name, props)

	var be *chunk.BlockEntity
	if rule.BlockEntity != "" {
		beNS, beName := splitIdent(rule.BlockEntity)
		be = chunk.NewBlockEntity(beNS, beName, cube.Pos{}, nil)
	}
	return BlockOutput(out), be, rule.NeedsContext
}

func splitIdent(s string) (namespace, baseName string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}
