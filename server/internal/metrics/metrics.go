package metrics

import (
	"log/slog"
	"net/http"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/pingtools/jobtrack/server/internal/store"
)

// knownStatuses are always exported so dashboards see explicit zeros.
var knownStatuses = []store.Status{
	store.StatusInProgress,
	store.StatusSucceeded,
	store.StatusFailed,
}

// Handler serves the store's metrics in the text exposition format.
func Handler(st *store.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range Families(st.Stats()) {
			if err := enc.Encode(mf); err != nil {
				slog.Error("metrics: encode failed", "family", mf.GetName(), "err", err)
				return
			}
		}
	})
}

// Families converts stats into metric families, sorted by name.
func Families(s store.Stats) []*dto.MetricFamily {
	fams := []*dto.MetricFamily{
		jobsByStatus(s.ByStatus),
		counter("jobtrack_events_total", "Status events accepted by the store.", s.Events),
		counter("jobtrack_events_rejected_total", "Status events rejected for a missing token.", s.Rejected),
		counter("jobtrack_events_ignored_total", "Status events addressed to jobs already in a terminal status.", s.Ignored),
		counter("jobtrack_sweeps_total", "Timeout sweeps run.", s.Sweeps),
		counter("jobtrack_jobs_expired_total", "Jobs failed by the timeout sweep.", s.Expired),
		counter("jobtrack_persist_total", "Successful writes of the state file.", s.Persists),
		counter("jobtrack_persist_failures_total", "Failed writes of the state file.", s.PersistFailures),
	}
	sort.Slice(fams, func(i, j int) bool { return fams[i].GetName() < fams[j].GetName() })
	return fams
}

func jobsByStatus(byStatus map[store.Status]int) *dto.MetricFamily {
	counts := make(map[store.Status]int, len(byStatus)+len(knownStatuses))
	for _, st := range knownStatuses {
		counts[st] = 0
	}
	for st, n := range byStatus {
		counts[st] = n
	}

	statuses := make([]string, 0, len(counts))
	for st := range counts {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)

	mf := &dto.MetricFamily{
		Name: proto.String("jobtrack_jobs"),
		Help: proto.String("Tracked jobs by status."),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, st := range statuses {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{{Name: proto.String("status"), Value: proto.String(st)}},
			Gauge: &dto.Gauge{Value: proto.Float64(float64(counts[store.Status(st)]))},
		})
	}
	return mf
}

func counter(name, help string, v uint64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{
			Counter: &dto.Counter{Value: proto.Float64(float64(v))},
		}},
	}
}
