package timeline

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WriteProject writes a project to a YAML file
func WriteProject(project *Project, path string) error {
	data, err := yaml.Marshal(project)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadProject reads a project from a YAML file. Settings missing from the
// file keep their defaults.
func ReadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	project := NewProject()
	if err := yaml.Unmarshal(data, project); err != nil {
		return nil, err
	}

	return project, nil
}
