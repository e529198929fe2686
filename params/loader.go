package params

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// LoadSpecFile reads a yaml spec file and applies it on top of the given
// base configuration. Keys absent from the file keep their base values.
func LoadSpecFile(path string, base *ChainSpec) (*ChainSpec, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read spec file")
	}
	return LoadSpec(raw, base)
}

// LoadSpec unmarshals yaml spec overrides on top of a base configuration.
func LoadSpec(raw []byte, base *ChainSpec) (*ChainSpec, error) {
	cfg := *base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal spec overrides")
	}
	if cfg.SlotsPerEpoch == 0 {
		return nil, errors.New("SLOTS_PER_EPOCH must be non-zero")
	}
	if cfg.ShardCount == 0 {
		return nil, errors.New("SHARD_COUNT must be non-zero")
	}
	return &cfg, nil
}
