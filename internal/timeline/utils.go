package timeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/beat2video/internal/system"
)

// ProjectsDir is where the CLI looks for project files by default.
var ProjectsDir = filepath.Join("input", "projects")

// GenerateProjectPath creates a timestamped project filename
func GenerateProjectPath() string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(ProjectsDir, fmt.Sprintf("project_%s.yaml", timestamp))
}

// FindLatestProject finds the most recent project file in dir
func FindLatestProject(dir string) (string, error) {
	path, err := system.FindLatest(dir, ".yaml", ".yml")
	if err != nil {
		return "", fmt.Errorf("no project file: %w", err)
	}
	return path, nil
}
