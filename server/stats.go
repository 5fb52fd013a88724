package server

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats holds the server's in-memory operation counters, exposed both as
// plain atomics for fast internal accounting (spec.md section 5's "own
// worker thread accounts its own operations" model) and as Prometheus
// counters for external scraping. sync/atomic is stdlib - a
// handful of add-only counters is exactly the kind of thing the teacher
// itself reaches for sync/atomic rather than a library (see
// backend/smb/connpool.go's f.sessions atomic.Int32).
type Stats struct {
	creates atomic.Uint64
	deletes atomic.Uint64
	reads   atomic.Uint64
	writes  atomic.Uint64
	status  atomic.Uint64

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64

	opsTotal   *prometheus.CounterVec
	bytesTotal *prometheus.CounterVec
}

// NewStats creates a Stats and registers its Prometheus collectors
// against reg. Passing a fresh prometheus.NewRegistry() in tests avoids
// colliding with the global DefaultRegisterer.
func NewStats(reg prometheus.Registerer) *Stats {
	s := &Stats{
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "julea_server_operations_total",
			Help: "Number of operations handled by this server, by operation kind.",
		}, []string{"op"}),
		bytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "julea_server_bytes_total",
			Help: "Bytes transferred by this server, by direction.",
		}, []string{"direction"}),
	}
	reg.MustRegister(s.opsTotal, s.bytesTotal)
	return s
}

func (s *Stats) addCreate() { s.creates.Add(1); s.opsTotal.WithLabelValues("create").Inc() }
func (s *Stats) addDelete() { s.deletes.Add(1); s.opsTotal.WithLabelValues("delete").Inc() }
func (s *Stats) addStatus() { s.status.Add(1); s.opsTotal.WithLabelValues("status").Inc() }

func (s *Stats) addRead(n uint64) {
	s.reads.Add(1)
	s.bytesRead.Add(n)
	s.opsTotal.WithLabelValues("read").Inc()
	s.bytesTotal.WithLabelValues("read").Add(float64(n))
}

func (s *Stats) addWrite(n uint64) {
	s.writes.Add(1)
	s.bytesWritten.Add(n)
	s.opsTotal.WithLabelValues("write").Inc()
	s.bytesTotal.WithLabelValues("write").Add(float64(n))
}

// Snapshot is a point-in-time copy of every counter, for status reporting
// that shouldn't hold a Prometheus registry reference.
type Snapshot struct {
	Creates, Deletes, Reads, Writes, Status   uint64
	BytesRead, BytesWritten                   uint64
}

// Snapshot reads every counter's current value.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Creates:      s.creates.Load(),
		Deletes:      s.deletes.Load(),
		Reads:        s.reads.Load(),
		Writes:       s.writes.Load(),
		Status:       s.status.Load(),
		BytesRead:    s.bytesRead.Load(),
		BytesWritten: s.bytesWritten.Load(),
	}
}
