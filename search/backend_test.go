package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeBackend is an in-memory Backend for exercising the operations
// layer without a cluster.
type fakeBackend struct {
	mu sync.Mutex

	docs    map[string]map[string][]byte // index -> id -> source
	indices map[string]bool
	calls   []string

	searchQueue []*Result // consumed by Search then Scroll, in order
	lastSearch  SearchRequest
	bulkResult  *BulkResult
	bulkOps     []BulkOp
	bulkIndex   string
	cleared     []string
	pingErr     error
	scrollErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:    make(map[string]map[string][]byte),
		indices: make(map[string]bool),
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Kind() Kind { return Kind("fake") }

func (f *fakeBackend) Ping(ctx context.Context) error {
	f.record("ping")
	return f.pingErr
}

func (f *fakeBackend) Index(ctx context.Context, req IndexRequest) (*IndexResult, error) {
	f.record("index:" + req.Index)
	data, err := json.Marshal(req.Document)
	if err != nil {
		return nil, err
	}
	id := req.ID
	if id == "" {
		id = fmt.Sprintf("auto-%d", len(f.docs[req.Index])+1)
	}
	f.mu.Lock()
	if f.docs[req.Index] == nil {
		f.docs[req.Index] = make(map[string][]byte)
	}
	f.docs[req.Index][id] = data
	f.mu.Unlock()
	return &IndexResult{ID: id, Version: 1, Created: true}, nil
}

func (f *fakeBackend) Get(ctx context.Context, req GetRequest) (*GetResult, error) {
	f.record("get:" + req.Index)
	f.mu.Lock()
	data, ok := f.docs[req.Index][req.ID]
	f.mu.Unlock()
	if !ok {
		return &GetResult{Found: false, Index: req.Index, ID: req.ID}, nil
	}
	return &GetResult{Found: true, Index: req.Index, ID: req.ID, Version: 1, Source: data}, nil
}

func (f *fakeBackend) MultiGet(ctx context.Context, index string, ids []string) ([]GetResult, error) {
	f.record("mget:" + index)
	results := make([]GetResult, 0, len(ids))
	for _, id := range ids {
		res, _ := f.Get(ctx, GetRequest{Index: index, ID: id})
		results = append(results, *res)
	}
	return results, nil
}

func (f *fakeBackend) Exists(ctx context.Context, index, id string) (bool, error) {
	f.record("exists:" + index)
	f.mu.Lock()
	_, ok := f.docs[index][id]
	f.mu.Unlock()
	return ok, nil
}

func (f *fakeBackend) Update(ctx context.Context, req UpdateRequest) error {
	f.record("update:" + req.Index)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[req.Index][req.ID]; !ok {
		return NewError(404, "document_missing_exception", req.ID)
	}
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, req DeleteRequest) error {
	f.record("delete:" + req.Index)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[req.Index][req.ID]; !ok {
		return NewError(404, "", "not found")
	}
	delete(f.docs[req.Index], req.ID)
	return nil
}

func (f *fakeBackend) DeleteByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	f.record("delete_by_query")
	var n int64
	f.mu.Lock()
	for _, index := range indices {
		n += int64(len(f.docs[index]))
		f.docs[index] = make(map[string][]byte)
	}
	f.mu.Unlock()
	return n, nil
}

func (f *fakeBackend) UpdateByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	f.record("update_by_query")
	var n int64
	f.mu.Lock()
	for _, index := range indices {
		n += int64(len(f.docs[index]))
	}
	f.mu.Unlock()
	return n, nil
}

func (f *fakeBackend) Count(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	f.record("count")
	var n int64
	f.mu.Lock()
	for _, index := range indices {
		n += int64(len(f.docs[index]))
	}
	f.mu.Unlock()
	return n, nil
}

func (f *fakeBackend) popResult() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.searchQueue) == 0 {
		return &Result{}
	}
	r := f.searchQueue[0]
	f.searchQueue = f.searchQueue[1:]
	return r
}

func (f *fakeBackend) Search(ctx context.Context, req SearchRequest) (*Result, error) {
	f.record("search")
	f.mu.Lock()
	f.lastSearch = req
	f.mu.Unlock()
	return f.popResult(), nil
}

func (f *fakeBackend) Scroll(ctx context.Context, scrollID string, keep time.Duration) (*Result, error) {
	f.record("scroll")
	if f.scrollErr != nil {
		return nil, f.scrollErr
	}
	return f.popResult(), nil
}

func (f *fakeBackend) ClearScroll(ctx context.Context, scrollID string) error {
	f.record("clear_scroll")
	f.mu.Lock()
	f.cleared = append(f.cleared, scrollID)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) Bulk(ctx context.Context, index string, ops []BulkOp) (*BulkResult, error) {
	f.record("bulk:" + index)
	f.mu.Lock()
	f.bulkIndex = index
	f.bulkOps = append(f.bulkOps, ops...)
	result := f.bulkResult
	f.mu.Unlock()
	if result != nil {
		return result, nil
	}
	out := &BulkResult{Items: make([]BulkItem, len(ops))}
	for i, op := range ops {
		out.Items[i] = BulkItem{Action: op.Action, Index: index, ID: op.ID, Status: 200}
	}
	return out, nil
}

func (f *fakeBackend) Indices() IndicesBackend { return (*fakeIndices)(f) }

type fakeIndices fakeBackend

func (fi *fakeIndices) backend() *fakeBackend { return (*fakeBackend)(fi) }

func (fi *fakeIndices) Create(ctx context.Context, index string, body map[string]any) error {
	fi.backend().record("indices.create:" + index)
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if fi.indices[index] {
		return NewError(400, "resource_already_exists_exception", index)
	}
	fi.indices[index] = true
	return nil
}

func (fi *fakeIndices) Delete(ctx context.Context, indices ...string) error {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	for _, index := range indices {
		if !fi.indices[index] {
			return NewError(404, "index_not_found_exception", index)
		}
		delete(fi.indices, index)
		delete(fi.docs, index)
	}
	return nil
}

func (fi *fakeIndices) Exists(ctx context.Context, index string) (bool, error) {
	fi.backend().record("indices.exists:" + index)
	fi.mu.Lock()
	defer fi.mu.Unlock()
	return fi.indices[index], nil
}

func (fi *fakeIndices) Refresh(ctx context.Context, indices ...string) error {
	fi.backend().record("indices.refresh")
	return nil
}

func (fi *fakeIndices) GetMapping(ctx context.Context, index string) (map[string]any, error) {
	return map[string]any{"properties": map[string]any{}}, nil
}

func (fi *fakeIndices) PutMapping(ctx context.Context, index string, mapping map[string]any) error {
	fi.backend().record("indices.put_mapping:" + index)
	return nil
}

func (fi *fakeIndices) GetSettings(ctx context.Context, index string) (map[string]any, error) {
	return map[string]any{}, nil
}

func (fi *fakeIndices) PutSettings(ctx context.Context, index string, settings map[string]any) error {
	return nil
}

func (fi *fakeIndices) UpdateAliases(ctx context.Context, actions []AliasAction) error {
	for _, a := range actions {
		fi.backend().record(fmt.Sprintf("aliases.%s:%s->%s", a.Type, a.Alias, a.Index))
	}
	return nil
}

func (fi *fakeIndices) GetAliases(ctx context.Context, index string) (map[string][]string, error) {
	return map[string][]string{index: {"alias-" + index}}, nil
}

func (fi *fakeIndices) PutIndexTemplate(ctx context.Context, name string, body map[string]any) error {
	fi.backend().record("templates.put:" + name)
	return nil
}

func (fi *fakeIndices) GetIndexTemplate(ctx context.Context, name string) (map[string]any, error) {
	return map[string]any{"name": name}, nil
}

func (fi *fakeIndices) DeleteIndexTemplate(ctx context.Context, name string) error {
	return nil
}

func TestRegisterFactory_RoundTrip(t *testing.T) {
	kind := Kind("fake-registry")
	RegisterFactory(kind, func(conn any) (Backend, error) {
		b, ok := conn.(*fakeBackend)
		if !ok {
			return nil, fmt.Errorf("expected *fakeBackend, got %T", conn)
		}
		return b, nil
	})

	fake := newFakeBackend()
	b, err := NewBackend(kind, fake)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if b != Backend(fake) {
		t.Fatalf("factory must return the provided backend")
	}

	found := false
	for _, k := range RegisteredKinds() {
		if k == kind {
			found = true
		}
	}
	if !found {
		t.Fatalf("registered kind missing from RegisteredKinds")
	}
}

func TestNewBackend_UnknownKind(t *testing.T) {
	_, err := NewBackend(Kind("nope"), nil)
	if !errors.Is(err, ErrBackendNotFound) {
		t.Fatalf("expected ErrBackendNotFound, got %v", err)
	}
}
