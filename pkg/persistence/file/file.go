// Package file provides file-based persistence used by tests and local
// development. Each entity is one JSON document under a collection directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gangrun/outreach/pkg/persistence"
)

// Persistence implements persistence.Persistence over a root directory.
type Persistence struct {
	root string
	mu   sync.RWMutex

	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
	customerRepo  *CustomerRepository
	segmentRepo   *SegmentRepository
	sendRepo      *SendRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix is stripped so database-url flags can select it.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.TrimPrefix(root, "file://")

	p := &Persistence{root: cleanRoot}
	p.workflowRepo = &WorkflowRepository{store: p}
	p.executionRepo = &ExecutionRepository{store: p}
	p.customerRepo = &CustomerRepository{store: p}
	p.segmentRepo = &SegmentRepository{store: p}
	p.sendRepo = &SendRepository{store: p}

	return p
}

func (p *Persistence) Workflows() persistence.WorkflowRepository   { return p.workflowRepo }
func (p *Persistence) Executions() persistence.ExecutionRepository { return p.executionRepo }
func (p *Persistence) Customers() persistence.CustomerRepository   { return p.customerRepo }
func (p *Persistence) Segments() persistence.SegmentRepository     { return p.segmentRepo }
func (p *Persistence) Sends() persistence.SendRepository           { return p.sendRepo }

// HealthCheck verifies the root directory exists or can be created.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return os.MkdirAll(p.root, 0o755)
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// read loads one document into out; returns fs.ErrNotExist when missing.
func (p *Persistence) read(collection, id string, out any) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := os.ReadFile(p.docPath(collection, id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

// write stores one document, creating the collection directory on demand.
func (p *Persistence) write(collection, id string, doc any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := filepath.Join(p.root, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create collection directory %s: %w", collection, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", collection, id, err)
	}

	return os.WriteFile(p.docPath(collection, id), data, 0o644)
}

func (p *Persistence) remove(collection, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return os.Remove(p.docPath(collection, id))
}

// ids lists the document IDs of a collection. A missing directory is an
// empty collection.
func (p *Persistence) ids(collection string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(p.root, collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}

	return ids, nil
}

func (p *Persistence) docPath(collection, id string) string {
	return filepath.Join(p.root, collection, id+".json")
}
