// Package storetest provides in-memory doubles for the store interfaces
package storetest

import (
	"bitwise74/invoice-api/internal/store"
	"context"
	"io"
	"sync"
)

// Payloads is an in-memory store.PayloadStore. The Fail fields make the
// matching operation return that error.
type Payloads struct {
	mu      sync.Mutex
	objects map[string][]byte

	FailPut    error
	FailURL    error
	FailDelete error
}

func NewPayloads() *Payloads {
	return &Payloads{objects: make(map[string][]byte)}
}

func (p *Payloads) Put(_ context.Context, path string, body io.Reader, _ int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailPut != nil {
		return p.FailPut
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	p.objects[path] = data
	return nil
}

func (p *Payloads) URL(_ context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailURL != nil {
		return "", p.FailURL
	}

	if _, ok := p.objects[path]; !ok {
		return "", store.ErrNotFound
	}

	return "https://objects.test/" + path, nil
}

func (p *Payloads) Delete(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailDelete != nil {
		return p.FailDelete
	}

	if _, ok := p.objects[path]; !ok {
		return store.ErrNotFound
	}

	delete(p.objects, path)
	return nil
}

func (p *Payloads) Has(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.objects[path]
	return ok
}

func (p *Payloads) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.objects)
}
