package utils

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/frame-vault/framevault/src/pkg/api"
	"gopkg.in/yaml.v3"
)

const Tag = "MediaStore"

//go:embed docs/openapi.yaml
var openAPISpecs string

func GenerateOpenAPISpecs() (string, error) {
	var spec map[string]interface{}
	if err := yaml.Unmarshal([]byte(openAPISpecs), &spec); err != nil {
		return "", fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}

	if existingTags, ok := spec["tags"].([]string); ok {
		found := false
		for _, t := range existingTags {
			if t == Tag {
				found = true
				break
			}
		}
		if !found {
			spec["tags"] = append(existingTags, Tag)
		}
	} else {
		spec["tags"] = []string{Tag}
	}

	var pathsSpec map[string]interface{}
	if unmarshalErr := yaml.Unmarshal([]byte(api.GetOpenAPISpec(api.PathPrefix, Tag)), &pathsSpec); unmarshalErr == nil {
		paths, ok := spec["paths"].(map[string]interface{})
		if !ok {
			paths = map[string]interface{}{}
			spec["paths"] = paths
		}
		for k, v := range pathsSpec {
			paths[k] = v
		}
	} else {
		slog.Warn("failed to unmarshal media store OpenAPI spec", "error", unmarshalErr)
	}

	bytes, bytesErr := yaml.Marshal(spec)
	if bytesErr != nil {
		return "", fmt.Errorf("failed to marshal OpenAPI spec: %w", bytesErr)
	}
	return string(bytes), nil
}
