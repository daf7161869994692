package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tally-dev/tally/internal/model"
)

// Parser converts a bank statement file into a Statement.
type Parser interface {
	Parse(r io.Reader) (model.Statement, error)
	Format() string
	// Detect reports whether head, the first bytes of a file, looks like
	// this parser's format.
	Detect(head []byte) bool
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a statement file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Detect returns the parser whose format matches head, or nil. Parsers are
// tried in format-name order.
func (r *Registry) Detect(head []byte) Parser {
	for _, name := range r.Formats() {
		if p := r.parsers[name]; p.Detect(head) {
			return p
		}
	}
	return nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&PostaleParser{})
	return r
}

const sniffLen = 512

// ParseFile reads the statement at path, picking the parser by content.
// Statements without an account identifier take the file's base name.
func (r *Registry) ParseFile(path string) (model.Statement, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return model.Statement{}, fmt.Errorf("invalid extension for %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Statement{}, fmt.Errorf("opening %s: %w", path, err)
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	p := r.Detect(head)
	if p == nil {
		return model.Statement{}, fmt.Errorf("unrecognized statement format in %s", path)
	}

	st, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return model.Statement{}, fmt.Errorf("parsing %s statement %s: %w", p.Format(), path, err)
	}
	if st.Account.ID == "" {
		st.Account.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return st, nil
}

// importDir is the subdirectory for statements waiting to be imported.
const importDir = "import"

// processedDir is the subdirectory for imported statements.
const processedDir = "import/processed"

// Scan returns CSV files in <dataDir>/import/.
func Scan(dataDir string) ([]FileInfo, error) {
	dir := filepath.Join(dataDir, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(dataDir, fileName string) error {
	src := filepath.Join(dataDir, importDir, fileName)
	dstDir := filepath.Join(dataDir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
