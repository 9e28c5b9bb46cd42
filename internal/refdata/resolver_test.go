package refdata

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
)

// fakeStore is a scriptable Store for resolver tests.
type fakeStore struct {
	mu           sync.Mutex
	options      []Option
	searchErr    error
	createErr    error
	deleteErr    error
	usageErr     error
	used         bool
	deleteCalled bool
	createdID    string
}

func (s *fakeStore) Search(ctx context.Context, query string) ([]Option, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	var matched []Option
	for _, opt := range s.options {
		if query == "" || containsFold(opt.Name, query) {
			matched = append(matched, opt)
		}
	}
	return matched, nil
}

func (s *fakeStore) Create(ctx context.Context, name string) (Option, error) {
	if s.createErr != nil {
		return Option{}, s.createErr
	}
	created := Option{ID: s.createdID, Name: name}
	s.options = append(s.options, created)
	return created, nil
}

func (s *fakeStore) GetAll(ctx context.Context) ([]Option, error) {
	return s.options, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.deleteCalled = true
	s.mu.Unlock()
	return s.deleteErr
}

func (s *fakeStore) CheckUsage(ctx context.Context, id string) (bool, error) {
	if s.usageErr != nil {
		return false, s.usageErr
	}
	return s.used, nil
}

func containsFold(haystack, needle string) bool {
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := 0; j < len(needle); j++ {
			a, b := haystack[i+j], needle[j]
			if a >= 'A' && a <= 'Z' {
				a += 'a' - 'A'
			}
			if b >= 'A' && b <= 'Z' {
				b += 'a' - 'A'
			}
			if a != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// blockingStore lets a test control when each search response returns,
// to exercise overlapping in-flight searches.
type blockingStore struct {
	fakeStore
	dispatched chan string
	release    map[string]chan []Option
}

func (s *blockingStore) Search(ctx context.Context, query string) ([]Option, error) {
	s.dispatched <- query
	return <-s.release[query], nil
}

func testLogger() *logger.Logger {
	return logger.New("refdata-test", "test")
}

func TestResolver_LatestRequestWins(t *testing.T) {
	store := &blockingStore{
		dispatched: make(chan string, 2),
		release: map[string]chan []Option{
			"ri":   make(chan []Option),
			"rice": make(chan []Option),
		},
	}
	resolver := NewResolver(store, testLogger())
	ctx := context.Background()

	results := make(map[string]Result)
	completed := make(chan string, 2)
	var mu sync.Mutex

	search := func(query string) {
		res := resolver.Search(ctx, query)
		mu.Lock()
		results[query] = res
		mu.Unlock()
		completed <- query
	}

	// Dispatch "ri" first, then "rice"; sequence numbers follow
	// dispatch order.
	go search("ri")
	require.Equal(t, "ri", <-store.dispatched)
	go search("rice")
	require.Equal(t, "rice", <-store.dispatched)

	// The newer query's response arrives and is applied first.
	store.release["rice"] <- []Option{{ID: "2", Name: "rice"}}
	require.Equal(t, "rice", <-completed)
	store.release["ri"] <- []Option{{ID: "1", Name: "ribeye"}, {ID: "2", Name: "rice"}}
	require.Equal(t, "ri", <-completed)

	// The slower, older response must have been discarded.
	assert.False(t, results["rice"].Stale)
	assert.True(t, results["ri"].Stale)
	require.Len(t, resolver.Options(), 1)
	assert.Equal(t, "rice", resolver.Options()[0].Name)
}

func TestResolver_SearchAppliesResults(t *testing.T) {
	store := &fakeStore{options: []Option{
		{ID: "1", Name: "Arroz"},
		{ID: "2", Name: "Feijao"},
	}}
	resolver := NewResolver(store, testLogger())

	res := resolver.Search(context.Background(), "arr")
	require.True(t, res.Success)
	require.Len(t, res.Options, 1)
	assert.Equal(t, "Arroz", res.Options[0].Name)
	assert.True(t, resolver.IsOpen())
}

func TestResolver_SearchFailureLeavesStateUnchanged(t *testing.T) {
	store := &fakeStore{options: []Option{{ID: "1", Name: "Arroz"}}}
	resolver := NewResolver(store, testLogger())

	require.True(t, resolver.Load(context.Background()).Success)
	before := resolver.Options()

	store.searchErr = assertableErr("store down")
	res := resolver.Search(context.Background(), "arr")

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, before, resolver.Options())
}

func TestResolver_CreateNewSelectsAndMerges(t *testing.T) {
	store := &fakeStore{createdID: "9"}
	resolver := NewResolver(store, testLogger())

	res := resolver.CreateNew(context.Background(), "Novo Doador")
	require.True(t, res.Success)

	selected := resolver.Selected()
	require.NotNil(t, selected)
	assert.Equal(t, "9", selected.ID)
	assert.Equal(t, "Novo Doador", selected.Name)

	require.Len(t, resolver.Options(), 1)
	assert.False(t, resolver.IsOpen())
}

func TestResolver_CreateNewDuplicateKeepsState(t *testing.T) {
	store := &fakeStore{options: []Option{{ID: "1", Name: "Arroz"}}}
	resolver := NewResolver(store, testLogger())
	require.True(t, resolver.Load(context.Background()).Success)

	store.createErr = errors.DuplicateReference("Arroz")
	res := resolver.CreateNew(context.Background(), "Arroz")

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
	assert.Nil(t, resolver.Selected())
	assert.Len(t, resolver.Options(), 1)
}

func TestResolver_DeleteRefusedWhenInUse(t *testing.T) {
	store := &fakeStore{
		options: []Option{{ID: "1", Name: "Arroz"}},
		used:    true,
	}
	resolver := NewResolver(store, testLogger())
	require.True(t, resolver.Load(context.Background()).Success)

	res := resolver.Delete(context.Background(), "1")

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
	assert.False(t, store.deleteCalled, "delete must never be attempted for an in-use option")
	assert.Len(t, resolver.Options(), 1)
}

func TestResolver_DeleteRemovesAndClearsSelection(t *testing.T) {
	store := &fakeStore{options: []Option{
		{ID: "1", Name: "Arroz"},
		{ID: "2", Name: "Feijao"},
	}}
	resolver := NewResolver(store, testLogger())
	require.True(t, resolver.Load(context.Background()).Success)
	resolver.Select(Option{ID: "1", Name: "Arroz"})

	res := resolver.Delete(context.Background(), "1")

	require.True(t, res.Success)
	require.Len(t, resolver.Options(), 1)
	assert.Equal(t, "2", resolver.Options()[0].ID)
	assert.Nil(t, resolver.Selected())
}

func TestResolver_DeleteUsageCheckFailureSkipsDelete(t *testing.T) {
	store := &fakeStore{
		options:  []Option{{ID: "1", Name: "Arroz"}},
		usageErr: assertableErr("usage check down"),
	}
	resolver := NewResolver(store, testLogger())
	require.True(t, resolver.Load(context.Background()).Success)

	res := resolver.Delete(context.Background(), "1")

	assert.False(t, res.Success)
	assert.False(t, store.deleteCalled)
	assert.Len(t, resolver.Options(), 1)
}

func TestResolver_SelectClosesList(t *testing.T) {
	store := &fakeStore{options: []Option{{ID: "1", Name: "Arroz"}}}
	resolver := NewResolver(store, testLogger())
	require.True(t, resolver.Load(context.Background()).Success)
	require.True(t, resolver.IsOpen())

	resolver.Select(Option{ID: "1", Name: "Arroz"})

	assert.False(t, resolver.IsOpen())
	require.NotNil(t, resolver.Selected())
	assert.Equal(t, "1", resolver.Selected().ID)
}

func TestDebouncer_OnlyLastTriggerRuns(t *testing.T) {
	debouncer := NewDebouncer(20 * time.Millisecond)
	defer debouncer.Stop()

	var mu sync.Mutex
	var ran []string

	for _, q := range []string{"r", "ri", "ric", "rice"} {
		query := q
		debouncer.Trigger(func() {
			mu.Lock()
			ran = append(ran, query)
			mu.Unlock()
		})
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ran, 1)
	assert.Equal(t, "rice", ran[0])
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	debouncer := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	ran := false
	debouncer.Trigger(func() {
		mu.Lock()
		ran = true
		mu.Unlock()
	})
	debouncer.Stop()

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, ran)
}

// assertableErr is a plain error for store failure scripting.
type assertableErr string

func (e assertableErr) Error() string { return string(e) }
