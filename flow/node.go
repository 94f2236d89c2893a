package flow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/s3flow/logger"
	"github.com/theapemachine/s3flow/metrics"
	"github.com/theapemachine/s3flow/storage"
)

/*
Env carries what the host supplies to every invocation: how to acquire a
storage session, where status updates go, and the engine settings for the
upload nodes.
*/
type Env struct {
	Open        storage.Opener
	Reporter    Reporter
	Logger      *log.Logger
	Recorder    *metrics.Recorder
	Concurrency int
	StrictProbe bool
}

// Normalize fills the optional fields with their defaults
func (e *Env) Normalize() *Env {
	out := *e
	if out.Reporter == nil {
		out.Reporter = NopReporter()
	}
	if out.Logger == nil {
		out.Logger = logger.DefaultLogger
	}
	if out.Concurrency < 1 {
		out.Concurrency = 1
	}
	return &out
}

/*
Node is one S3 operation. Handle returns the message to send on, or nil
when nothing is sent. When the operation itself fails the node still
returns the cloned message, with payload nil and the error attached, along
with the error for the host's error channel. Parameter validation failures
return only the error.
*/
type Node interface {
	Type() string
	Handle(ctx context.Context, env *Env, msg Message) (Message, error)
}

// Factory builds a node from its static properties
type Factory func(props Properties) (Node, error)

/*
Registry maps node types to factories. It is safe for concurrent use.
*/
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a node type; registering a type twice is an error
func (r *Registry) Register(nodeType string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[nodeType]; exists {
		return fmt.Errorf("node type %s already registered", nodeType)
	}
	r.factories[nodeType] = factory
	return nil
}

// New builds a node of the given type
func (r *Registry) New(nodeType string, props Properties) (Node, error) {
	r.mu.RLock()
	factory, ok := r.factories[nodeType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown node type %s", nodeType)
	}
	return factory(props)
}

// Types lists the registered node types in alphabetical order
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}
	sort.Strings(types)
	return types
}
