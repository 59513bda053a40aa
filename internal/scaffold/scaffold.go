package scaffold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/canopy-iac/canopy/internal/ctxlog"
	"github.com/canopy-iac/canopy/internal/fsutil"
)

// Inputs are the values available to templates under .Values, plus the
// project name under .Project.
type Inputs struct {
	Project string
	Values  map[string]string
}

// Generate renders templateDir into targetDir. The target directory must
// not already exist; a half-written project from a failed earlier run has
// to be removed explicitly before retrying.
func Generate(ctx context.Context, templateDir, targetDir string, in Inputs) error {
	logger := ctxlog.FromContext(ctx)

	if _, err := os.Stat(targetDir); err == nil {
		return fmt.Errorf("target directory %s already exists", targetDir)
	}

	files, err := fsutil.FindAllFiles(templateDir)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", templateDir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("template %s contains no files", templateDir)
	}

	for _, rel := range files {
		if err := renderFile(templateDir, targetDir, rel, in); err != nil {
			return err
		}
		logger.Debug("Rendered template file.", "file", rel)
	}

	logger.Info("✅ Project generated", "project", in.Project, "dir", targetDir, "files", len(files))
	return nil
}

func renderFile(templateDir, targetDir, rel string, in Inputs) error {
	src := filepath.Join(templateDir, rel)
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	tmpl, err := template.New(rel).Funcs(sprig.FuncMap()).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", rel, err)
	}

	// File names may themselves be templated, e.g. "{{ .Project }}.tf".
	dstRel, err := renderString(rel, in)
	if err != nil {
		return fmt.Errorf("rendering path %s: %w", rel, err)
	}
	dst := filepath.Join(targetDir, dstRel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := tmpl.Execute(out, in); err != nil {
		return fmt.Errorf("rendering %s: %w", rel, err)
	}
	return nil
}

func renderString(s string, in Inputs) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	tmpl, err := template.New("path").Funcs(sprig.FuncMap()).Parse(s)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, in); err != nil {
		return "", err
	}
	return sb.String(), nil
}
