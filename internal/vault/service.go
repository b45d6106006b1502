// Package vault reads converted entries back out of an output vault.
package vault

import (
	"context"
	"errors"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/starford/dayvault/internal/apperr"
	"github.com/starford/dayvault/internal/checksum"
	"github.com/starford/dayvault/internal/converter"
	"github.com/starford/dayvault/internal/parser"
	"github.com/starford/dayvault/internal/storage"
)

// EntryDetail is the full representation of an entry file.
type EntryDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Embeds      []string       `json:"embeds"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// EntryListItem is a lightweight item in a list response.
type EntryListItem struct {
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	UUID     string   `json:"uuid,omitempty"`
	Created  string   `json:"created,omitempty"`
	Checksum string   `json:"checksum"`
	Tags     []string `json:"tags"`
}

// Service reads entries from a vault.
type Service struct {
	store storage.Provider
}

// NewService creates a new vault service.
func NewService(store storage.Provider) *Service {
	return &Service{store: store}
}

// GetEntry reads and parses one entry file.
func (s *Service) GetEntry(_ context.Context, p string) (*EntryDetail, error) {
	data, err := s.store.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &EntryDetail{
		Path:        p,
		Title:       title(p, res),
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Embeds:      nonNilSlice(res.Embeds),
		Frontmatter: res.Frontmatter,
	}, nil
}

// ListEntries returns every entry, optionally only those carrying tag.
func (s *Service) ListEntries(_ context.Context, tag string) ([]EntryListItem, error) {
	files, err := s.store.List(converter.EntriesDir, ".md")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []EntryListItem{}, nil
		}
		return nil, err
	}
	items := make([]EntryListItem, 0, len(files))
	for _, f := range files {
		data, err := s.store.Read(f.Path)
		if err != nil {
			return nil, err
		}
		res, err := parser.Parse(data)
		if err != nil {
			return nil, err
		}
		if tag != "" && !slices.Contains(res.Tags, tag) {
			continue
		}
		item := EntryListItem{
			Path:     f.Path,
			Title:    title(f.Path, res),
			Checksum: f.Checksum,
			Tags:     nonNilSlice(res.Tags),
		}
		item.UUID, _ = res.Frontmatter["uuid"].(string)
		item.Created, _ = res.Frontmatter["created"].(string)
		items = append(items, item)
	}
	return items, nil
}

// title prefers the first heading and falls back to the filename.
func title(p string, res *parser.Result) string {
	if res.Title != "" {
		return res.Title
	}
	return strings.TrimSuffix(path.Base(p), ".md")
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
