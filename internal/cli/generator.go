// Package cli drives registry generation for the frood command.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/toyz/frood/internal/generator"
	"github.com/toyz/frood/internal/parser"
	"github.com/toyz/frood/internal/utils"
)

// GenerationSummary describes the outcome of one run
type GenerationSummary struct {
	Packages       int
	Controllers    int
	Actions        int
	GeneratedFiles []string
	RemovedFiles   []string
	Duration       time.Duration
}

// Generator coordinates the CLI generation process
type Generator struct {
	scanner       *DirectoryScanner
	codeGenerator generator.CodeGenerator
	reporter      *DiagnosticReporter
	diagnostics   *utils.DiagnosticSystem
	summary       GenerationSummary
}

// NewGenerator creates a new CLI generator
func NewGenerator(diagnostics *utils.DiagnosticSystem, reporter *DiagnosticReporter) *Generator {
	return &Generator{
		scanner:       NewDirectoryScanner(),
		codeGenerator: generator.NewGenerator(),
		reporter:      reporter,
		diagnostics:   diagnostics,
	}
}

// GetSummary returns the summary of the last run
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Run scans, parses and generates. Nothing is written unless every package parses.
func (g *Generator) Run(config Config) error {
	start := time.Now()
	g.summary = GenerationSummary{}

	g.diagnostics.FroodHeader("Generating controller registries")
	if config.ModuleName != "" {
		g.diagnostics.Debug("Using custom module name: %s", config.ModuleName)
	}

	dirs, err := g.scanner.ScanDirectories(config.Directories)
	if err != nil {
		return fmt.Errorf("scan directories: %w", err)
	}
	g.diagnostics.Verbose("Scanning %d directories", len(dirs))

	p := parser.NewParser(utils.NewModuleResolver(config.ModuleName))

	var (
		pkgs  []*parser.Package
		empty []string
		errs  []error
	)
	g.diagnostics.PhaseHeader("Parsing")
	for _, dir := range dirs {
		pkg, err := p.ParseDirectory(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(pkg.Controllers) == 0 {
			g.diagnostics.Debug("%s has no controllers", dir)
			empty = append(empty, dir)
			continue
		}
		pkgs = append(pkgs, pkg)
		g.diagnostics.PhaseItem("%s: %d controllers, %d actions", packageName(pkg), len(pkg.Controllers), pkg.ActionCount())
		if config.Verbose {
			g.diagnostics.Indent()
			for _, c := range pkg.Controllers {
				g.diagnostics.List("%s -> %s", c.TypeName, c.Key())
			}
			g.diagnostics.Unindent()
		}
	}

	errs = append(errs, CheckControllerKeys(pkgs)...)
	if len(errs) > 0 {
		err := errors.Join(errs...)
		g.reporter.ReportError(err)
		return fmt.Errorf("generation failed: %w", err)
	}
	if len(pkgs) == 0 {
		g.reporter.ReportWarning("no annotated controllers found in %s", strings.Join(config.Directories, ", "))
	}

	parser.SortPackages(pkgs)
	g.diagnostics.PhaseHeader("Generating")
	for _, pkg := range pkgs {
		g.summary.Packages++
		g.summary.Controllers += len(pkg.Controllers)
		g.summary.Actions += pkg.ActionCount()

		if config.DryRun {
			if _, err := g.codeGenerator.Render(pkg); err != nil {
				return err
			}
			g.diagnostics.PhaseItem("Rendered %s", packageName(pkg))
			continue
		}
		file, err := g.codeGenerator.Generate(pkg)
		if err != nil {
			return err
		}
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, file.Path)
		g.diagnostics.PhaseItem("Wrote %s", file.Path)
	}

	// registries of packages whose controllers are gone
	if !config.DryRun {
		for _, dir := range empty {
			removed, err := generator.Clean(dir)
			if err != nil {
				return fmt.Errorf("clean %s: %w", dir, err)
			}
			if removed {
				g.summary.RemovedFiles = append(g.summary.RemovedFiles, dir)
				g.diagnostics.PhaseItem("Removed stale registry of %s", dir)
			}
		}
	}

	g.summary.Duration = time.Since(start)
	g.diagnostics.Summary("Summary", [][2]string{
		{"Packages", strconv.Itoa(g.summary.Packages)},
		{"Controllers", strconv.Itoa(g.summary.Controllers)},
		{"Actions", strconv.Itoa(g.summary.Actions)},
		{"Duration", g.summary.Duration.Round(time.Millisecond).String()},
	})
	g.diagnostics.GenerationComplete()
	return nil
}

// CheckControllerKeys reports controllers registered under the same key by different
// packages. Duplicates inside one package are reported by the parser.
func CheckControllerKeys(pkgs []*parser.Package) []error {
	owners := make(map[string]string)
	var errs []error
	for _, pkg := range pkgs {
		for _, c := range pkg.Controllers {
			owner := packageName(pkg) + "." + c.TypeName
			if prev, ok := owners[c.Key()]; ok {
				errs = append(errs, fmt.Errorf("%s and %s both register controller %s", prev, owner, c.Key()))
				continue
			}
			owners[c.Key()] = owner
		}
	}
	return errs
}

func packageName(pkg *parser.Package) string {
	if pkg.ImportPath != "" {
		return pkg.ImportPath
	}
	return pkg.Dir
}
