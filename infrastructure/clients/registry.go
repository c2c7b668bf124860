package clients

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"mediahub/domain/model"
	"mediahub/domain/repository"
)

const (
	Douyin      = "douyin"
	Kuaishou    = "kuaishou"
	Xiaohongshu = "xiaohongshu"
	YouTube     = "youtube"
)

// Registry maps platform names to adapters.
type Registry struct {
	mu        sync.RWMutex
	platforms map[string]repository.IPlatform
}

func NewRegistry(platforms ...repository.IPlatform) *Registry {
	r := &Registry{platforms: make(map[string]repository.IPlatform)}
	for _, p := range platforms {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the adapter under p.Name().
func (r *Registry) Register(p repository.IPlatform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms[strings.ToLower(p.Name())] = p
}

func (r *Registry) Get(name string) (repository.IPlatform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.platforms[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedPlatform, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.platforms))
	for name := range r.platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ repository.IPlatformRegistry = (*Registry)(nil)
