package logger

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// ComponentStats counts warnings and errors logged by one component.
type ComponentStats struct {
	Component string `json:"component"`
	Warns     int64  `json:"warns"`
	Errors    int64  `json:"errors"`
}

type componentCounter struct {
	warns  int64
	errors int64
}

var components sync.Map // map[string]*componentCounter

func counterFor(component string) *componentCounter {
	v, _ := components.LoadOrStore(component, &componentCounter{})
	return v.(*componentCounter)
}

func recordWarn(component string) {
	atomic.AddInt64(&counterFor(component).warns, 1)
}

func recordError(component string) {
	atomic.AddInt64(&counterFor(component).errors, 1)
}

// Stats returns the per-component warn/error counts sorted by component name.
func Stats() []ComponentStats {
	var out []ComponentStats
	components.Range(func(k, v any) bool {
		c := v.(*componentCounter)
		out = append(out, ComponentStats{
			Component: k.(string),
			Warns:     atomic.LoadInt64(&c.warns),
			Errors:    atomic.LoadInt64(&c.errors),
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}

// ResetStats clears all component counters.
func ResetStats() {
	components.Range(func(k, _ any) bool {
		components.Delete(k)
		return true
	})
}

// LogRunReport writes one summary line for a finished run and publishes the
// gauges plus per-component error counts to CloudWatch. Labels (market,
// screener) become dimensions on every gauge.
func LogRunReport(ctx context.Context, log *Log, runID string, labels map[string]string, gauges map[string]float64) {
	stats := Stats()
	dims := dimensionsOf(labels)

	fields := Fields{"run_id": runID}
	for name, v := range labels {
		fields[name] = v
	}
	for name, v := range gauges {
		fields[name] = v
	}
	var warns, errs int64
	for _, s := range stats {
		warns += s.Warns
		errs += s.Errors
	}
	fields["warns"] = warns
	fields["errors"] = errs

	log.WithComponent("report").WithFields(fields).Info("run report")

	names := make([]string, 0, len(gauges))
	for name := range gauges {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make([]cwtypes.MetricDatum, 0, len(gauges)+len(stats))
	for _, name := range names {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(gauges[name]),
		})
	}
	for _, s := range stats {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String("ComponentErrors"),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{{Name: aws.String("Component"), Value: aws.String(s.Component)}},
			Value:      aws.Float64(float64(s.Errors)),
		})
	}

	publishMetrics(ctx, data)
}
