package services

import (
	"context"
	"strings"

	"github.com/kendall-kelly/atelier-api/utils"
)

// LocalStore keeps images on disk under Dir. They are served by the
// /uploads route, so URLs are BaseURL + /uploads/<key>.
type LocalStore struct {
	Dir     string
	BaseURL string
}

// NewLocalStore creates a disk-backed store
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Put writes body to disk
func (s *LocalStore) Put(_ context.Context, key, _ string, body []byte) error {
	return utils.SaveFile(s.Dir, key, body)
}

// URL returns the public path of key
func (s *LocalStore) URL(_ context.Context, key string) (string, error) {
	if _, err := utils.ResolveKey(s.Dir, key); err != nil {
		return "", err
	}
	return s.BaseURL + utils.GetImageURL(key), nil
}

// Delete removes key from disk
func (s *LocalStore) Delete(_ context.Context, key string) error {
	return utils.RemoveFile(s.Dir, key)
}
