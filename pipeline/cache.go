package pipeline

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"medpredict/ml"
)

type cachedPrediction struct {
	label      int
	confidence float64
}

// resultCache memoises classifier output per artifact version and exact input
// vector. A nil cache is valid and never hits.
type resultCache struct {
	entries *lru.Cache[string, cachedPrediction]
}

func newResultCache(size int) (*resultCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[string, cachedPrediction](size)
	if err != nil {
		return nil, err
	}
	return &resultCache{entries: entries}, nil
}

func (c *resultCache) get(key string) (cachedPrediction, bool) {
	if c == nil {
		return cachedPrediction{}, false
	}
	return c.entries.Get(key)
}

func (c *resultCache) add(key string, value cachedPrediction) {
	if c == nil {
		return
	}
	c.entries.Add(key, value)
}

func (c *resultCache) len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cacheKey(condition ml.Condition, version uint64, vector []float64) string {
	var b strings.Builder
	b.WriteString(condition.String())
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(version, 10))
	for _, v := range vector {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
