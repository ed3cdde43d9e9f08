package rendering

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/jonathan/donation-receipts/internal/types"
)

// documentPart is the main body of a WordprocessingML package.
const documentPart = "word/document.xml"

var (
	// placeholder matches {{ Field }} even when Word has split the braces or
	// the name across several runs.
	placeholder = regexp.MustCompile(`(?s)\{(?:<[^>]*>)*\{(.*?)\}(?:<[^>]*>)*\}`)
	xmlTag      = regexp.MustCompile(`<[^>]*>`)
	identifier  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Template is a parsed .docx receipt template. It is loaded once per run and
// rendered once per record.
type Template struct {
	path   string
	zip    *zip.Reader
	parts  map[string]*template.Template
	fields map[string]bool
}

// Load reads and parses a .docx template. Placeholders use the Jinja-style
// {{ Field }} syntax. A missing file, a file that is not a Word document, or
// a malformed placeholder returns *TemplateError.
func Load(path string) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{Path: path, Message: "template file not found", Cause: err}
		}
		return nil, &TemplateError{Path: path, Message: "failed to read template file", Cause: err}
	}

	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &TemplateError{Path: path, Message: "not a .docx file", Cause: err}
	}

	tmpl := &Template{
		path:   path,
		zip:    zr,
		parts:  make(map[string]*template.Template),
		fields: make(map[string]bool),
	}

	for _, f := range zr.File {
		if !isTemplatedPart(f.Name) {
			continue
		}
		raw, err := readZipFile(f)
		if err != nil {
			return nil, &TemplateError{Path: path, Message: fmt.Sprintf("failed to read %s", f.Name), Cause: err}
		}
		parsed, err := tmpl.parsePart(f.Name, raw)
		if err != nil {
			return nil, err
		}
		tmpl.parts[f.Name] = parsed
	}

	if _, ok := tmpl.parts[documentPart]; !ok {
		return nil, &TemplateError{Path: path, Message: "not a .docx file: " + documentPart + " is missing"}
	}

	return tmpl, nil
}

// Path returns the file the template was loaded from.
func (t *Template) Path() string {
	return t.path
}

// Fields returns the placeholder names used by the template, sorted.
func (t *Template) Fields() []string {
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownFields returns placeholders that no RenderContext value fills.
// They render as empty text.
func (t *Template) UnknownFields() []string {
	known := types.RenderContext{}.Values()
	var unknown []string
	for _, name := range t.Fields() {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// Render fills the template with ctx and writes the document to outPath,
// creating parent directories. An existing file is replaced.
func (t *Template) Render(ctx types.RenderContext, outPath string) error {
	data := ctx.Values()

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return &RenderError{Message: fmt.Sprintf("failed to create output directory for %s", outPath), Cause: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".receipt-*.docx")
	if err != nil {
		return &RenderError{Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := t.write(tmp, data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return &RenderError{Message: "failed to close document", Cause: err}
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return &RenderError{Message: fmt.Sprintf("failed to write %s", outPath), Cause: err}
	}

	return nil
}

func (t *Template) write(w io.Writer, data map[string]string) error {
	zw := zip.NewWriter(w)

	for _, f := range t.zip.File {
		parsed, ok := t.parts[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return &RenderError{Message: fmt.Sprintf("failed to copy %s", f.Name), Cause: err}
			}
			continue
		}

		header := f.FileHeader
		header.CompressedSize64 = 0
		header.UncompressedSize64 = 0
		header.CRC32 = 0
		part, err := zw.CreateHeader(&header)
		if err != nil {
			return &RenderError{Message: fmt.Sprintf("failed to create %s", f.Name), Cause: err}
		}
		if err := parsed.Execute(part, data); err != nil {
			return &RenderError{Message: fmt.Sprintf("failed to fill %s", f.Name), Cause: err}
		}
	}

	if err := zw.Close(); err != nil {
		return &RenderError{Message: "failed to finalize document", Cause: err}
	}
	return nil
}

// parsePart rewrites every {{ Field }} placeholder in a part into a
// template action and parses the result.
func (t *Template) parsePart(name string, raw []byte) (*template.Template, error) {
	var badExpr string
	rewritten := placeholder.ReplaceAllStringFunc(string(raw), func(match string) string {
		inner := placeholder.FindStringSubmatch(match)[1]
		field := strings.TrimSpace(xmlTag.ReplaceAllString(inner, ""))
		if !identifier.MatchString(field) {
			if badExpr == "" {
				badExpr = field
			}
			return match
		}
		t.fields[field] = true
		return fmt.Sprintf(`{{escape (index . %q)}}`, field)
	})
	if badExpr != "" {
		return nil, &TemplateError{
			Path:    t.path,
			Message: fmt.Sprintf("unsupported placeholder {{ %s }} in %s", badExpr, name),
		}
	}

	parsed, err := template.New(name).
		Option("missingkey=zero").
		Funcs(template.FuncMap{"escape": EscapeXML}).
		Parse(rewritten)
	if err != nil {
		return nil, &TemplateError{Path: t.path, Message: fmt.Sprintf("malformed placeholder in %s", name), Cause: err}
	}
	return parsed, nil
}

func isTemplatedPart(name string) bool {
	if name == documentPart {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return data, nil
}
