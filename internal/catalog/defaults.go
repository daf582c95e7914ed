package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultClusters is the built-in domain taxonomy. Seven super-clusters
// consolidated from empirical classification over a diverse task set.
func DefaultClusters() []Cluster {
	return []Cluster{
		{
			Name:        "MATH",
			Description: "Mathematical operations, calculations, statistics",
			Keywords:    []string{"calculate", "math", "number", "equation", "compute", "sum", "average", "statistics"},
		},
		{
			Name:        "WEB",
			Description: "Web browsing, navigation, clicking, form filling",
			Keywords:    []string{"web", "browser", "click", "navigate", "url", "page", "link", "website"},
		},
		{
			Name:        "DATA",
			Description: "File operations, data analysis, CSV/JSON processing",
			Keywords:    []string{"file", "data", "csv", "json", "read", "write", "analyze", "process", "parse"},
		},
		{
			Name:        "TEXT",
			Description: "Text processing, NLP, translation, summarization",
			Keywords:    []string{"text", "translate", "summarize", "language", "words", "paragraph", "document"},
		},
		{
			Name:        "COMMUNICATION",
			Description: "Email, messaging, notifications, API calls",
			Keywords:    []string{"email", "send", "message", "notify", "api", "request", "post", "fetch"},
		},
		{
			Name:        "SYSTEM",
			Description: "System operations, file system, commands, datetime",
			Keywords:    []string{"system", "command", "execute", "datetime", "time", "date", "directory", "path"},
		},
		{
			Name:        "CODE",
			Description: "Programming, code generation, debugging",
			Keywords:    []string{"code", "programming", "function", "python", "script", "debug", "compile"},
		},
	}
}

// clustersFile is the YAML shape for a user-supplied taxonomy.
type clustersFile struct {
	Clusters []Cluster `yaml:"clusters"`
}

// LoadClusters reads a custom cluster taxonomy from a YAML file.
func LoadClusters(path string) ([]Cluster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clusters file: %w", err)
	}

	var file clustersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse clusters file %s: %w", path, err)
	}
	if len(file.Clusters) == 0 {
		return nil, fmt.Errorf("clusters file %s defines no clusters", path)
	}
	for _, cl := range file.Clusters {
		if cl.Name == "" {
			return nil, fmt.Errorf("clusters file %s contains a cluster with no name", path)
		}
	}

	return file.Clusters, nil
}
