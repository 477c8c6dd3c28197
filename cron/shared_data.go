package cron

import (
	"context"
	"sync"
)

type contextKey string

const sharedDataKey contextKey = "jsonify:cron:shared"

// SharedData carries values between the tasks of one chain run.
// A fresh SharedData is attached to the context of every run.
// All methods are safe on a nil receiver, so tasks executed outside a
// chain can use GetSharedData(ctx) without checking for nil.
type SharedData struct {
	data sync.Map
}

// GetSharedData returns the SharedData of the running chain, or nil.
func GetSharedData(ctx context.Context) *SharedData {
	s, _ := ctx.Value(sharedDataKey).(*SharedData)
	return s
}

func withSharedData(parent context.Context) context.Context {
	return context.WithValue(parent, sharedDataKey, &SharedData{})
}

// Set stores value under key
func (s *SharedData) Set(key string, value any) {
	if s == nil {
		return
	}
	s.data.Store(key, value)
}

// Get loads the value stored under key
func (s *SharedData) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return s.data.Load(key)
}

// Mark records that key happened during this run
func (s *SharedData) Mark(key string) {
	s.Set(key, true)
}

// Marked reports whether Mark(key) was called earlier in this run
func (s *SharedData) Marked(key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Delete removes key
func (s *SharedData) Delete(key string) {
	if s == nil {
		return
	}
	s.data.Delete(key)
}
