package engine

import "sort"

// Sites is the global registry filled by sitelib.
var Sites = &siteStore{
	List: []*Site{},
	Hash: map[string]*Site{},
}

type siteStore struct {
	List []*Site
	Hash map[string]*Site
}

func (c *siteStore) Add(site *Site) {
	if _, ok := c.Hash[site.Name]; !ok {
		c.List = append(c.List, site)
	}
	c.Hash[site.Name] = site
}

func (c *siteStore) Get(name string) (*Site, bool) {
	s, ok := c.Hash[name]
	return s, ok
}

func (c *siteStore) Names() []string {
	names := make([]string, 0, len(c.Hash))
	for n := range c.Hash {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
