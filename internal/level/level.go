// Package level edits the datapack selection stored in a world's level.dat.
package level

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/mch-analysis/pkg/compression"
	"github.com/mch-analysis/pkg/nbt"
	"github.com/mch-analysis/pkg/utils"
)

// FileName is the name of the level storage file inside a world directory.
const FileName = "level.dat"

const (
	keyData      = "Data"
	keyDataPacks = "DataPacks"
	keyEnabled   = "Enabled"
	keyDisabled  = "Disabled"
)

// ErrNoData is returned when the root compound has no Data compound.
var ErrNoData = errors.New("level storage has no Data compound")

// DataPacks is the enabled and disabled datapack selection.
type DataPacks struct {
	Enabled  []string `json:"enabled"`
	Disabled []string `json:"disabled"`
}

// Storage wraps a decoded level.dat root compound.
type Storage struct {
	root   *nbt.Compound
	logger utils.Logger
}

// NewStorage wraps an already decoded root compound.
func NewStorage(root *nbt.Compound, logger utils.Logger) *Storage {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Storage{root: root, logger: logger}
}

// Read decodes level storage from a gzip-compressed stream.
func Read(r io.Reader, logger utils.Logger) (*Storage, error) {
	root, err := nbt.ReadRoot(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read level storage: %w", err)
	}
	return NewStorage(root, logger), nil
}

// Load reads <levelDir>/level.dat.
func Load(levelDir string, logger utils.Logger) (*Storage, error) {
	root, err := nbt.ReadRootFile(filepath.Join(levelDir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read level storage: %w", err)
	}
	return NewStorage(root, logger), nil
}

// Root returns the wrapped root compound.
func (s *Storage) Root() *nbt.Compound {
	return s.root
}

// Write encodes the level storage as a gzip-compressed stream.
func (s *Storage) Write(w io.Writer) error {
	return nbt.WriteRoot(w, s.root)
}

// Save writes <levelDir>/level.dat.
func (s *Storage) Save(levelDir string, level compression.Level) error {
	path := filepath.Join(levelDir, FileName)
	s.logger.Debug("Writing level storage to %s", path)
	return nbt.WriteRootFile(path, s.root, level)
}

// DataPacks returns the selection stored under Data.DataPacks.
// A missing DataPacks compound yields an empty selection.
func (s *Storage) DataPacks() (DataPacks, error) {
	data, err := s.data()
	if err != nil {
		return DataPacks{}, err
	}
	if !data.Has(keyDataPacks) {
		return DataPacks{}, nil
	}

	packs, err := data.GetCompound(keyDataPacks)
	if err != nil {
		return DataPacks{}, err
	}

	enabled, err := stringList(packs, keyEnabled)
	if err != nil {
		return DataPacks{}, err
	}
	disabled, err := stringList(packs, keyDisabled)
	if err != nil {
		return DataPacks{}, err
	}
	return DataPacks{Enabled: enabled, Disabled: disabled}, nil
}

// SetBenchmarkPack disables every pack in benchmarkPacks and enables only selected.
// Non-benchmark packs keep their state. An empty selected disables all benchmark packs.
// Order is preserved and duplicates are dropped.
func (s *Storage) SetBenchmarkPack(benchmarkPacks []string, selected string) (DataPacks, error) {
	current, err := s.DataPacks()
	if err != nil {
		return DataPacks{}, err
	}

	benchmark := make(map[string]struct{}, len(benchmarkPacks))
	for _, p := range benchmarkPacks {
		benchmark[p] = struct{}{}
	}

	enabled := newOrderedSet()
	for _, p := range current.Enabled {
		if _, ok := benchmark[p]; !ok {
			enabled.add(p)
		}
	}
	if selected != "" {
		enabled.add(selected)
	}

	disabled := newOrderedSet()
	for _, p := range current.Disabled {
		disabled.add(p)
	}
	for _, p := range benchmarkPacks {
		disabled.add(p)
	}
	disabled.remove(selected)

	next := DataPacks{Enabled: enabled.items(), Disabled: disabled.items()}
	if err := s.setDataPacks(next); err != nil {
		return DataPacks{}, err
	}

	s.logger.WithFields(map[string]interface{}{
		"enabled":  len(next.Enabled),
		"disabled": len(next.Disabled),
	}).Info("Overwriting Data.DataPacks in %s", FileName)
	return next, nil
}

func (s *Storage) data() (*nbt.Compound, error) {
	if s.root == nil || !s.root.Has(keyData) {
		return nil, ErrNoData
	}
	return s.root.GetCompound(keyData)
}

func (s *Storage) setDataPacks(packs DataPacks) error {
	data, err := s.data()
	if err != nil {
		return err
	}

	compound := nbt.NewCompound()
	if data.Has(keyDataPacks) {
		if compound, err = data.GetCompound(keyDataPacks); err != nil {
			return err
		}
	}

	compound.Set(keyEnabled, stringTags(packs.Enabled))
	compound.Set(keyDisabled, stringTags(packs.Disabled))
	data.Set(keyDataPacks, compound)
	return nil
}

func stringList(c *nbt.Compound, name string) ([]string, error) {
	if !c.Has(name) {
		return nil, nil
	}
	list, err := c.GetList(name)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		s, ok := list.At(i).(nbt.String)
		if !ok {
			return nil, &nbt.TypeMismatchError{Name: name, Want: nbt.TypeString, Got: list.At(i).Type()}
		}
		out = append(out, string(s))
	}
	return out, nil
}

func stringTags(values []string) *nbt.List {
	tags := make([]nbt.Tag, len(values))
	for i, v := range values {
		tags[i] = nbt.String(v)
	}
	return nbt.MustList(tags...)
}

type orderedSet struct {
	seen  map[string]struct{}
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *orderedSet) remove(v string) {
	if _, ok := s.seen[v]; !ok {
		return
	}
	delete(s.seen, v)
	for i, item := range s.order {
		if item == v {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *orderedSet) items() []string {
	return append([]string(nil), s.order...)
}
