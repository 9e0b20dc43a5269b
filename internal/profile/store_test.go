package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/garyburd/redigo/redis"
)

// fakeConn is an in-memory stand-in for a Redis connection supporting GET and SET
type fakeConn struct {
	mu   *sync.Mutex
	data map[string][]byte
	err  error
}

func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) Err() error   { return nil }
func (c *fakeConn) Send(string, ...interface{}) error {
	return errors.New("not supported")
}
func (c *fakeConn) Flush() error { return nil }
func (c *fakeConn) Receive() (interface{}, error) {
	return nil, errors.New("not supported")
}

func (c *fakeConn) Do(cmd string, args ...interface{}) (interface{}, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd {
	case "":
		// the pool flushes with an empty command when a connection is returned
		return nil, nil
	case "GET":
		v, ok := c.data[args[0].(string)]
		if !ok {
			return nil, nil
		}
		return v, nil
	case "SET":
		c.data[args[0].(string)] = args[1].([]byte)
		return "OK", nil
	}
	return nil, errors.New("unknown command " + cmd)
}

func newFakePool(err error) *redis.Pool {
	shared := &fakeConn{mu: &sync.Mutex{}, data: map[string][]byte{}, err: err}
	return &redis.Pool{
		MaxIdle: 1,
		Dial: func() (redis.Conn, error) {
			return shared, nil
		},
	}
}

func TestRedisStore(t *testing.T) {
	store := NewRedisStore(newFakePool(nil), "test:profile")
	ctx := context.Background()

	doc, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc != nil {
		t.Errorf("Expected no profile, got %s", doc)
	}

	if err := store.Set(ctx, []byte(`{"style":"scandinavian"}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	doc, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(doc) != `{"style":"scandinavian"}` {
		t.Errorf("Unexpected profile %s", doc)
	}
}

func TestRedisStoreErrors(t *testing.T) {
	store := NewRedisStore(newFakePool(errors.New("connection refused")), "test:profile")

	if _, err := store.Get(context.Background()); err == nil {
		t.Error("Expected Get error")
	}
	if err := store.Set(context.Background(), []byte(`{}`)); err == nil {
		t.Error("Expected Set error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if doc, _ := store.Get(ctx); doc != nil {
		t.Errorf("Expected empty store, got %s", doc)
	}

	input := []byte(`{"budget":"low"}`)
	store.Set(ctx, input)
	input[2] = 'X'

	doc, _ := store.Get(ctx)
	if string(doc) != `{"budget":"low"}` {
		t.Errorf("Store must keep its own copy, got %s", doc)
	}
}

func TestValidate(t *testing.T) {
	doc, err := Validate([]byte(" {\n  \"room\": \"living\"\n} "))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if string(doc) != `{"room":"living"}` {
		t.Errorf("Expected compacted document, got %s", doc)
	}

	for _, bad := range []string{"", "[]", `"text"`, "{broken", "null"} {
		if _, err := Validate([]byte(bad)); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("%q: expected ErrInvalidDocument, got %v", bad, err)
		}
	}
}
