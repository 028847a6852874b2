package cli

import (
	"github.com/toyz/frood/internal/parser"
	"github.com/toyz/frood/internal/utils"
)

// DirectoryScanner resolves directory arguments to package directories
type DirectoryScanner struct {
	generated string
}

// NewDirectoryScanner creates a scanner that ignores generated registry files
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{generated: parser.GeneratedFile}
}

// ScanDirectories returns the absolute, sorted directories holding Go source
// Supports Go-style patterns like "./..." for recursive scanning
func (s *DirectoryScanner) ScanDirectories(rootDirs []string) ([]string, error) {
	return utils.ExpandDirectories(rootDirs, s.generated)
}
