// Package threadlocal provides per-OS-thread storage cells with a declared
// initial value.
//
// A Key declares a cell and its initial value. A goroutine acquires access
// with Pin, which wires it to its current OS thread; every Key read through
// that Thread starts at the Key's initial value and is invisible to every
// other thread. Release drops the thread's values, so the next Pin on the
// same OS thread observes the initial values again.
package threadlocal

import (
	"runtime"
	"sync"
)

type Key struct {
	name string
	init uint64

	mu   sync.Mutex
	vals map[int]uint64
}

func NewKey(name string, init uint64) *Key {
	return &Key{name: name, init: init, vals: make(map[int]uint64)}
}

func (k *Key) Name() string { return k.name }
func (k *Key) Initial() uint64 { return k.init }

// live reports how many threads currently hold a value for k.
func (k *Key) live() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.vals)
}

// Thread is the capability to use cells on one OS thread. It must be used
// and released on the goroutine that called Pin, and Pins must not nest.
type Thread struct {
	id      int
	touched map[*Key]struct{}
}

func Pin() *Thread {
	runtime.LockOSThread()
	return &Thread{id: threadID(), touched: make(map[*Key]struct{})}
}

// ID is the OS thread id on Linux and a process-unique handle id elsewhere.
func (t *Thread) ID() int { return t.id }

func (t *Thread) Load(k *Key) uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if v, ok := k.vals[t.id]; ok {
		return v
	}
	return k.init
}

func (t *Thread) Store(k *Key, v uint64) {
	k.mu.Lock()
	k.vals[t.id] = v
	k.mu.Unlock()
	t.touched[k] = struct{}{}
}

// Add adds delta with wrap-around and returns the new value.
func (t *Thread) Add(k *Key, delta uint64) uint64 {
	k.mu.Lock()
	v, ok := k.vals[t.id]
	if !ok {
		v = k.init
	}
	v += delta
	k.vals[t.id] = v
	k.mu.Unlock()
	t.touched[k] = struct{}{}
	return v
}

// Sub subtracts delta with wrap-around and returns the new value.
func (t *Thread) Sub(k *Key, delta uint64) uint64 {
	return t.Add(k, -delta)
}

// Release forgets this thread's values and unwires the goroutine.
func (t *Thread) Release() {
	for k := range t.touched {
		k.mu.Lock()
		delete(k.vals, t.id)
		k.mu.Unlock()
	}
	clear(t.touched)
	runtime.UnlockOSThread()
}
