// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package truststore loads trust anchors from disk and watches them for
// change. Its only coupling to the verification engine is the change
// callback, which the engine maps to a full cache invalidation.
package truststore

import (
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	x509certs "github.com/H0llyW00dzZ/tls-cert-verifier/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-cert-verifier/src/logger"
)

// Store holds the trust anchors loaded from a PEM file or a directory of
// PEM files, and optionally watches the path for updates.
//
// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	pool    *x509.CertPool
	anchors int

	onChange func()
	log      logger.Logger

	watcher *fsnotify.Watcher
	quit    chan struct{}
	wg      sync.WaitGroup
}

// Open loads trust anchors from path. onChange, if non-nil, is invoked after
// every successful reload triggered by [Store.Watch]; the engine registers
// its cache invalidation here. log may be nil.
func Open(path string, onChange func(), log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewJSONLogger(nil, true)
	}
	s := &Store{
		path:     path,
		onChange: onChange,
		log:      log,
		quit:     make(chan struct{}),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Pool returns the current trust anchor pool. The returned pool is a clone;
// callers may mutate it freely.
func (s *Store) Pool() *x509.CertPool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool.Clone()
}

// Len returns the number of loaded trust anchors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anchors
}

// reload reads the configured path into a fresh pool and swaps it in.
func (s *Store) reload() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("truststore: %w", err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(s.path)
		if err != nil {
			return fmt.Errorf("truststore: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".pem", ".crt", ".cer":
				files = append(files, filepath.Join(s.path, entry.Name()))
			}
		}
	} else {
		files = []string{s.path}
	}

	pool := x509.NewCertPool()
	decoder := x509certs.New()
	count := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("truststore: %w", err)
		}
		certs, err := decoder.DecodeMultiple(data)
		if err != nil {
			return fmt.Errorf("truststore: %s: %w", file, err)
		}
		for _, cert := range certs {
			pool.AddCert(cert)
			count++
		}
	}
	if count == 0 {
		return fmt.Errorf("truststore: no trust anchors found in %s", s.path)
	}

	s.mu.Lock()
	s.pool = pool
	s.anchors = count
	s.mu.Unlock()

	return nil
}

// Watch starts watching the store path and reloads on writes. A reload that
// fails keeps the previous anchors; a reload that succeeds fires the change
// callback.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("truststore: %w", err)
	}
	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return fmt.Errorf("truststore: %w", err)
	}
	s.watcher = watcher

	s.wg.Add(1)
	go s.watchLoop()
	return nil
}

func (s *Store) watchLoop() {
	defer s.wg.Done()
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				s.log.Printf("trust store reload failed, keeping previous anchors: %v", err)
				continue
			}
			s.log.Printf("trust store reloaded from %s (%d anchors)", s.path, s.Len())
			if s.onChange != nil {
				s.onChange()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Printf("trust store watch error: %v", err)
		case <-s.quit:
			return
		}
	}
}

// Close stops the watcher, if started.
func (s *Store) Close() error {
	close(s.quit)
	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
	}
	s.wg.Wait()
	return err
}
