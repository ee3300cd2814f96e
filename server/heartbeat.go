package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zenazn/goji/web"
)

type memoryInfo struct {
	HeapAlloc    string `json:"heap_alloc"`
	HeapSys      string `json:"heap_sys"`
	TotalAlloc   string `json:"total_alloc"`
	NumGC        uint32 `json:"num_gc"`
	NumGoroutine int    `json:"num_goroutine"`
}

type heartbeatDataset struct {
	Filename   string `json:"filename"`
	Variables  int    `json:"variables"`
	Dimensions int    `json:"dimensions"`
	DataBytes  int64  `json:"data_bytes"`
	DataSize   string `json:"data_size"`
}

type heartbeatDoc struct {
	Status        string           `json:"status"`
	ServerID      string           `json:"server_id"`
	APIVersion    string           `json:"api_version"`
	Uptime        string           `json:"uptime"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Note          string           `json:"note,omitempty"`
	Memory        memoryInfo       `json:"memory"`
	Dataset       heartbeatDataset `json:"dataset"`
}

// GET /heartbeat
//
// Liveness probe with process identity, uptime, memory pressure, and a
// short summary of the served dataset.
func (s *Service) heartbeatHandler(c web.C, w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	up := time.Since(s.startTime)
	bytes := s.ds.DataBytes()
	doc := heartbeatDoc{
		Status:        "ok",
		ServerID:      s.serverID,
		APIVersion:    WebAPIVersion,
		Uptime:        up.Round(time.Second).String(),
		UptimeSeconds: up.Seconds(),
		Note:          Note(),
		Memory: memoryInfo{
			HeapAlloc:    humanize.Bytes(m.HeapAlloc),
			HeapSys:      humanize.Bytes(m.HeapSys),
			TotalAlloc:   humanize.Bytes(m.TotalAlloc),
			NumGC:        m.NumGC,
			NumGoroutine: runtime.NumGoroutine(),
		},
		Dataset: heartbeatDataset{
			Filename:   s.ds.FilePath,
			Variables:  len(s.ds.Variables),
			Dimensions: len(s.ds.Dimensions),
			DataBytes:  bytes,
			DataSize:   humanize.Bytes(uint64(bytes)),
		},
	}
	writeJSON(w, doc)
}
