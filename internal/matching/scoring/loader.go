package scoring

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed default_tables.yaml
var defaultTables []byte

// WeightEnvPrefix prefixes weight overrides, e.g. CIRCUIT_WEIGHT_TIDINESS=2.
const WeightEnvPrefix = "CIRCUIT_WEIGHT_"

type tableDoc struct {
	Questions map[string]questionDoc `koanf:"questions"`
}

type questionDoc struct {
	Weight  float64   `koanf:"weight"`
	Answers []string  `koanf:"answers"`
	Synergy []pairDoc `koanf:"synergy"`
}

type pairDoc struct {
	A     string  `koanf:"a"`
	B     string  `koanf:"b"`
	Value float64 `koanf:"value"`
}

// embedded serves the built-in questionnaire to koanf.
type embedded []byte

func (e embedded) ReadBytes() ([]byte, error) { return e, nil }

func (e embedded) Read() (map[string]interface{}, error) {
	return nil, errors.New("embedded provider does not support Read()")
}

// Load builds Tables from, in increasing precedence:
//  1. the built-in questionnaire, when path is empty
//  2. the YAML file at path
//  3. CIRCUIT_WEIGHT_<QUESTION> environment overrides
func Load(path string) (*Tables, error) {
	k := koanf.New(".")

	if path == "" {
		if err := k.Load(embedded(defaultTables), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load default tables: %w", err)
		}
	} else {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load tables from %s: %w", path, err)
		}
	}

	envProvider := env.Provider(WeightEnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, WeightEnvPrefix))
		return "questions." + key + ".weight"
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load weight overrides: %w", err)
	}

	var doc tableDoc
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	return doc.build()
}

// Parse builds Tables from a YAML document.
func Parse(b []byte) (*Tables, error) {
	k := koanf.New(".")
	if err := k.Load(embedded(b), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	var doc tableDoc
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	return doc.build()
}

func (d tableDoc) build() (*Tables, error) {
	b := NewBuilder()
	for key, q := range d.Questions {
		b.Question(key, q.Weight, q.Answers...)
		for _, p := range q.Synergy {
			b.Pair(key, p.A, p.B, p.Value)
		}
	}
	return b.Build()
}

// Default returns the built-in questionnaire tables.
func Default() (*Tables, error) {
	return Parse(defaultTables)
}
