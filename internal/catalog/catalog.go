package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/csvcharts/internal/utils"
)

const catalogFileName = "catalog.json"

var (
	// ErrNotFound is returned when no entry matches a name or id.
	ErrNotFound = errors.New("dataset not found in catalog")
	// ErrDuplicate is returned when adding a name that already exists.
	ErrDuplicate = errors.New("dataset name already in catalog")
)

// Catalog is the persisted set of named dataset sources.
type Catalog struct {
	Datasets  map[string]*Entry `json:"datasets"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Not serialized: on-disk location of catalog.json
	rootDir string
}

// New constructs an empty in-memory catalog rooted at dir. Call Save() to persist.
func New(dir string) *Catalog {
	return &Catalog{Datasets: make(map[string]*Entry), rootDir: dir}
}

// Load reads catalog.json from dir. A missing file yields an empty catalog.
func Load(dir string) (*Catalog, error) {
	path := filepath.Join(dir, catalogFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(dir), nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if c.Datasets == nil {
		c.Datasets = make(map[string]*Entry)
	}
	c.rootDir = dir
	return &c, nil
}

// RootDir returns the directory holding catalog.json.
func (c *Catalog) RootDir() string { return c.rootDir }

// Save writes catalog.json using atomic write.
func (c *Catalog) Save() error {
	if c.rootDir == "" {
		return errors.New("catalog directory not set")
	}
	c.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(c)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(c.rootDir, catalogFileName), data)
}

// Add registers a dataset source under a unique name.
func (c *Catalog) Add(name, source, description string) (*Entry, error) {
	name = strings.TrimSpace(name)
	source = strings.TrimSpace(source)
	if name == "" || source == "" {
		return nil, errors.New("name and source are required")
	}
	if _, err := c.Lookup(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	if !strings.Contains(source, "://") {
		if abs, err := filepath.Abs(source); err == nil {
			source = abs
		}
	}
	e := &Entry{
		ID:          uuid.NewString(),
		Name:        name,
		Source:      source,
		Description: strings.TrimSpace(description),
		AddedAt:     time.Now(),
	}
	c.Datasets[e.ID] = e
	c.UpdatedAt = time.Now()
	return e, nil
}

// Lookup finds an entry by id or case-insensitive name.
func (c *Catalog) Lookup(key string) (*Entry, error) {
	if e, ok := c.Datasets[key]; ok {
		return e, nil
	}
	for _, e := range c.Datasets {
		if strings.EqualFold(e.Name, key) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// Remove deletes the entry matching key.
func (c *Catalog) Remove(key string) error {
	e, err := c.Lookup(key)
	if err != nil {
		return err
	}
	delete(c.Datasets, e.ID)
	c.UpdatedAt = time.Now()
	return nil
}

// List returns entries sorted by name for stable display.
func (c *Catalog) List() []*Entry {
	out := make([]*Entry, 0, len(c.Datasets))
	for _, e := range c.Datasets {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out
}

// Resolve maps a catalog name or id to its source; anything else is returned
// unchanged as a literal path or URL.
func (c *Catalog) Resolve(key string) string {
	if c == nil {
		return key
	}
	if e, err := c.Lookup(key); err == nil {
		return e.Source
	}
	return key
}
