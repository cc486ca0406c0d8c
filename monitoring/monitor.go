// Package monitoring turns a running replay into a small web server that
// reports its progress, counters, and resource usage.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/csim/sim/hooking"
)

type monitoredCache interface {
	hooking.Hookable
	Name() string
}

// Monitor can turn a replay into a server and allows external monitoring of
// the replay.
type Monitor struct {
	portNumber int
	server     *http.Server
	url        string

	statsLock sync.Mutex
	stats     []*StatsHook

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterCache attaches a counting hook to a cache.
func (m *Monitor) RegisterCache(c monitoredCache) *StatsHook {
	hook := NewStatsHook(c.Name())
	c.AcceptHook(hook)

	m.statsLock.Lock()
	defer m.statsLock.Unlock()

	m.stats = append(m.stats, hook)

	return hook
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", m.index)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/caches", m.listCaches)
	r.HandleFunc("/api/stats/{name}", m.cacheStats)
	r.HandleFunc("/api/stats/{name}/{field}", m.cacheStatsField)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("starting monitor: %w", err)
	}

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.server = &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()

	return m.url, nil
}

// OpenInBrowser opens the monitor in the default browser.
func (m *Monitor) OpenInBrowser() error {
	if m.url == "" {
		return errors.New("monitor server is not started")
	}

	return browser.OpenURL(m.url)
}

// StopServer shuts the server down.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

var endpoints = []string{
	"/api/progress",
	"/api/caches",
	"/api/stats/{name}",
	"/api/stats/{name}/{field}",
	"/api/resource",
	"/api/profile",
}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, endpoints)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	views := make([]progressBarView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		views = append(views, b.view())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, views)
}

func (m *Monitor) listCaches(w http.ResponseWriter, _ *http.Request) {
	m.statsLock.Lock()
	names := make([]string, 0, len(m.stats))
	for _, s := range m.stats {
		names = append(names, s.name)
	}
	m.statsLock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) findStatsOr404(
	w http.ResponseWriter,
	name string,
) *StatsHook {
	m.statsLock.Lock()
	defer m.statsLock.Unlock()

	for _, s := range m.stats {
		if s.name == name {
			return s
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Cache not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) cacheStats(w http.ResponseWriter, r *http.Request) {
	hook := m.findStatsOr404(w, mux.Vars(r)["name"])
	if hook == nil {
		return
	}

	snapshot := hook.Snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) cacheStatsField(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	hook := m.findStatsOr404(w, vars["name"])
	if hook == nil {
		return
	}

	snapshot := hook.Snapshot()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&snapshot)
	serializer.SetMaxDepth(1)

	err := serializer.SetEntryPoint(strings.Split(vars["field"], "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
