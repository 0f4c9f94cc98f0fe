/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package webservice

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/recorder"
	"github.com/megha-sim/megha-core/pkg/simulation"
)

var lock sync.RWMutex
var sim *simulation.Simulation
var results *recorder.MemoryRecorder

type WebService struct {
	httpServer *http.Server
}

func newRouter() *httprouter.Router {
	router := httprouter.New()
	for _, webRoute := range webRoutes {
		handler := gzipHandler(loggingHandler(webRoute.HandlerFunc, webRoute.Name))
		router.Handler(webRoute.Method, webRoute.Pattern, handler)
	}
	return router
}

func loggingHandler(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Log(log.Web).Debug("web request",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.String("route", name),
			zap.Duration("duration", time.Since(start)))
	})
}

type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func gzipHandler(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			inner.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		gz := gzip.NewWriter(w)
		defer func() {
			if err := gz.Close(); err != nil {
				log.Log(log.Web).Error("failed to close gzip writer", zap.Error(err))
			}
		}()
		inner.ServeHTTP(gzipResponseWriter{Writer: gz, ResponseWriter: w}, r)
	})
}

// StartWebApp serves the run on addr, an empty addr uses ":9080".
func (m *WebService) StartWebApp(addr string) {
	if addr == "" {
		addr = ":9080"
	}
	router := newRouter()
	m.httpServer = &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	log.Log(log.Web).Info("web-app started", zap.String("address", addr))
	go func() {
		httpError := m.httpServer.ListenAndServe()
		if httpError != nil && httpError != http.ErrServerClosed {
			log.Log(log.Web).Error("HTTP serving error",
				zap.Error(httpError))
		}
	}()
}

// NewWebApp exposes the simulation and the in-memory results. The recorder may be nil.
func NewWebApp(simulation *simulation.Simulation, memory *recorder.MemoryRecorder) *WebService {
	m := &WebService{}
	lock.Lock()
	defer lock.Unlock()
	sim = simulation
	results = memory
	return m
}

func (m *WebService) StopWebApp() error {
	if m.httpServer != nil {
		// graceful shutdown in 5 seconds
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.httpServer.Shutdown(ctx)
	}

	return nil
}
