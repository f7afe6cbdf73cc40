package store

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	s := NewStats()
	s.Inc("items", 1)
	s.Inc("items", 2)
	s.Set("errors", 5)
	assert.Equal(t, int64(3), s.Get("items"))
	assert.Equal(t, int64(5), s.Get("errors"))
	assert.Equal(t, []string{"errors", "items"}, s.Keys())

	var decoded map[string]int64
	assert.NoError(t, json.Unmarshal([]byte(s.JSON()), &decoded))
	assert.Equal(t, int64(3), decoded["items"])
}

func TestStatsConcurrent(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Inc("n", 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5000), s.Get("n"))
}
