//go:build legacyengine

// Package native binds the legacy ledger engine's shared libraries through
// dlopen. Build with -tags legacyengine and cgo enabled.
package native

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef int (*entry2)(void *, void *);
typedef int (*entry3)(void *, void *, void *);
typedef int (*entry4)(void *, void *, void *, void *);
typedef int (*entry5)(void *, void *, void *, void *, void *);

static int call2(void *fn, void *a, void *b) { return ((entry2)fn)(a, b); }
static int call3(void *fn, void *a, void *b, void *c) { return ((entry3)fn)(a, b, c); }
static int call4(void *fn, void *a, void *b, void *c, void *d) { return ((entry4)fn)(a, b, c, d); }
static int call5(void *fn, void *a, void *b, void *c, void *d, void *e) { return ((entry5)fn)(a, b, c, d, e); }
*/
import "C"

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"unsafe"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/record"
)

type symbol struct {
	handle unsafe.Pointer
	fn     unsafe.Pointer
}

// Engine calls the native entry points. The legacy runtime is not
// reentrant, so calls are serialized.
type Engine struct {
	mu      sync.Mutex
	symbols map[string]symbol
}

var _ engine.Engine = (*Engine)(nil)

func Open(dir string) (*Engine, error) {
	e := &Engine{symbols: make(map[string]symbol, len(entryPoints))}
	for _, ep := range entryPoints {
		sym, err := load(filepath.Join(dir, ep.library), ep.symbol)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.symbols[ep.symbol] = sym
	}
	return e, nil
}

func load(path, name string) (symbol, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_GLOBAL)
	if handle == nil {
		return symbol{}, fmt.Errorf("dlopen %s: %s", path, C.GoString(C.dlerror()))
	}

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	fn := C.dlsym(handle, cname)
	if fn == nil {
		C.dlclose(handle)
		return symbol{}, fmt.Errorf("dlsym %s in %s: %s", name, path, C.GoString(C.dlerror()))
	}
	return symbol{handle: handle, fn: fn}, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, sym := range e.symbols {
		C.dlclose(sym.handle)
		delete(e.symbols, name)
	}
	return nil
}

func (e *Engine) entry(name string) (unsafe.Pointer, error) {
	sym, ok := e.symbols[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnavailable)
	}
	return sym.fn, nil
}

func ptr[T any](v *T) unsafe.Pointer {
	return unsafe.Pointer(v)
}

func (e *Engine) CreateAccount(_ context.Context, id record.Key, balance comp3.Packed, out *record.AccountBuf, status *engine.Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, err := e.entry("createaccount")
	if err != nil {
		return err
	}
	C.call4(fn, ptr(&id), ptr(&balance), ptr(out), ptr(status))
	return nil
}

func (e *Engine) ReadAccount(_ context.Context, id record.Key, out *record.AccountBuf, status *engine.Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, err := e.entry("readaccount")
	if err != nil {
		return err
	}
	C.call3(fn, ptr(&id), ptr(out), ptr(status))
	return nil
}

func (e *Engine) ReadAccounts(_ context.Context, out *record.AccountTable, status *engine.Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, err := e.entry("readaccounts")
	if err != nil {
		return err
	}
	C.call2(fn, ptr(out), ptr(status))
	return nil
}

func (e *Engine) CreateTransaction(_ context.Context, source, destination record.Key, amount comp3.Packed, out *record.TransactionBuf, status *engine.Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, err := e.entry("createtransaction")
	if err != nil {
		return err
	}
	C.call5(fn, ptr(&source), ptr(&destination), ptr(&amount), ptr(out), ptr(status))
	return nil
}

func (e *Engine) ReadCredits(_ context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, err := e.entry("readcredits")
	if err != nil {
		return err
	}
	C.call4(fn, ptr(&account), ptr(&start), ptr(out), ptr(status))
	return nil
}

func (e *Engine) ReadDebits(_ context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, err := e.entry("readdebits")
	if err != nil {
		return err
	}
	C.call4(fn, ptr(&account), ptr(&start), ptr(out), ptr(status))
	return nil
}

func (e *Engine) ProcessTransactions(_ context.Context, account record.Key, status *engine.Status) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, err := e.entry("processtransactions")
	if err != nil {
		return err
	}
	C.call2(fn, ptr(&account), ptr(status))
	return nil
}
