package search_test

import (
	"fmt"
	"testing"

	"github.com/herohde/beagle/pkg/search"
	"github.com/stretchr/testify/assert"
)

func TestLRUQueryAbsent(t *testing.T) {
	l := search.NewLRU("-")

	assert.Equal(t, uint32(255), l.Query("a"))
	assert.Equal(t, uint32(255), l.Query("a")) // query does not insert
}

func TestLRUInsertQuery(t *testing.T) {
	l := search.NewLRU("-")

	l.Insert("a")
	assert.Equal(t, uint32(1), l.Query("a")) // touched one step ago

	l.Insert("b")
	l.Insert("c")
	assert.Equal(t, uint32(2), l.Query("b"))
	assert.Equal(t, uint32(2), l.Query("c"))

	// Recency is relative to the last touch, including queries.
	assert.Equal(t, uint32(1), l.Query("c"))
}

func TestLRUEviction(t *testing.T) {
	l := search.NewLRU("-")

	for i := 0; i < 20; i++ {
		l.Insert(fmt.Sprintf("k%v", i))
	}
	// Table full: a new key evicts the least recently used, k0.
	l.Insert("fresh")
	assert.Equal(t, uint32(255), l.Query("k0"))
	assert.NotEqual(t, uint32(255), l.Query("k1"))
	assert.NotEqual(t, uint32(255), l.Query("fresh"))
}

func TestLRUTouchPreventsEviction(t *testing.T) {
	l := search.NewLRU("-")

	for i := 0; i < 20; i++ {
		l.Insert(fmt.Sprintf("k%v", i))
	}
	l.Query("k0") // refresh the oldest

	l.Insert("fresh")
	assert.NotEqual(t, uint32(255), l.Query("k0"))
	assert.Equal(t, uint32(255), l.Query("k1")) // k1 was the stalest instead
}
