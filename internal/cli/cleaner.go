package cli

import (
	"fmt"

	"github.com/toyz/frood/internal/generator"
	"github.com/toyz/frood/internal/utils"
)

// Cleaner handles cleaning up generated files
type Cleaner struct {
	diagnostics *utils.DiagnosticSystem
}

// NewCleaner creates a new cleaner
func NewCleaner(diagnostics *utils.DiagnosticSystem) *Cleaner {
	return &Cleaner{diagnostics: diagnostics}
}

// CleanGeneratedFiles removes the registry files below the given directories and
// returns the directories they were removed from.
func (c *Cleaner) CleanGeneratedFiles(directories []string) ([]string, error) {
	// a directory holding nothing but the registry still has to be visited
	dirs, err := utils.ExpandDirectories(directories, "")
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, dir := range dirs {
		ok, err := generator.Clean(dir)
		if err != nil {
			return removed, fmt.Errorf("failed to clean directory %s: %w", dir, err)
		}
		if ok {
			removed = append(removed, dir)
			c.diagnostics.PhaseItem("Removed registry of %s", dir)
		}
	}
	return removed, nil
}
