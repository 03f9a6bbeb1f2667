package ml

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	TypeDecisionTree = "decision_tree"
	TypeLinear       = "linear"
)

const artifactSchemaJSON = `{
  "type": "object",
  "required": ["type", "features"],
  "properties": {
    "type": {"enum": ["decision_tree", "linear"]},
    "features": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "labels": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  },
  "allOf": [
    {
      "if": {"properties": {"type": {"const": "decision_tree"}}},
      "then": {
        "required": ["nodes"],
        "properties": {
          "nodes": {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/node"}}
        }
      }
    },
    {
      "if": {"properties": {"type": {"const": "linear"}}},
      "then": {
        "required": ["weights", "intercept"],
        "properties": {
          "weights": {"type": "array", "minItems": 1, "items": {"type": "number"}},
          "intercept": {"type": "number"}
        }
      }
    }
  ],
  "$defs": {
    "node": {
      "type": "object",
      "required": ["is_leaf"],
      "properties": {
        "feature_idx": {"type": "integer"},
        "threshold": {"type": "number"},
        "left_child": {"type": "integer"},
        "right_child": {"type": "integer"},
        "value": {"type": "number"},
        "is_leaf": {"type": "boolean"}
      }
    }
  }
}`

var artifactSchema = jsonschema.MustCompileString("model.schema.json", artifactSchemaJSON)

type artifact struct {
	Type      string     `json:"type"`
	Features  []string   `json:"features"`
	Labels    Labels     `json:"labels"`
	Nodes     []TreeNode `json:"nodes"`
	Weights   []float64  `json:"weights"`
	Intercept float64    `json:"intercept"`
}

// LoadModel 从磁盘读取模型文件
func LoadModel(path string) (Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	model, err := ParseModel(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// ParseModel 按 schema 校验 JSON 模型文件并构建模型，未提供 labels 时使用 DefaultLabels
func ParseModel(payload []byte) (Model, error) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if err := artifactSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	labels := a.Labels
	if labels == nil {
		labels = DefaultLabels()
	}

	var (
		model Model
		err   error
	)
	switch a.Type {
	case TypeDecisionTree:
		model, err = NewDecisionTree(a.Features, a.Nodes, labels)
	case TypeLinear:
		model, err = NewLinearModel(a.Features, a.Weights, a.Intercept, labels)
	default:
		return nil, fmt.Errorf("unsupported model type %q", a.Type)
	}
	if err != nil {
		return nil, err
	}
	return model, nil
}
