// Package metrics provides a lightweight Embedded Metric Format (EMF) recorder.
// Each flush writes one JSON document per line to the configured sink, a shape
// CloudWatch Logs and most log pipelines can turn into metrics without any
// client library or network call.
//
// Metrics are disabled until Enable is called; recorders flushed before that
// are dropped silently.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Namespace is the metric namespace used by this application.
const Namespace = "PhotoRestorer"

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// metricDef holds the name and unit for a single metric.
type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

// emfDirective is the _aws metadata block required by EMF.
type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

// Recorder accumulates dimensions, metrics, and properties for a single EMF flush.
// It is NOT safe for concurrent use from multiple goroutines; create one per operation.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]any
	properties map[string]any
}

var (
	sinkMu  sync.Mutex
	sink    io.Writer
	service string
)

// Enable routes flushed documents to w and tags each one with a Service
// dimension. A nil writer means stdout.
func Enable(w io.Writer, serviceName string) {
	if w == nil {
		w = os.Stdout
	}
	sinkMu.Lock()
	sink, service = w, serviceName
	sinkMu.Unlock()
}

// Disable drops all further flushes.
func Disable() {
	sinkMu.Lock()
	sink, service = nil, ""
	sinkMu.Unlock()
}

// New creates a new EMF Recorder with the given namespace.
func New(namespace string) *Recorder {
	r := &Recorder{
		namespace:  namespace,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]any),
		properties: make(map[string]any),
	}
	sinkMu.Lock()
	if service != "" {
		r.dimensions["Service"] = service
	}
	sinkMu.Unlock()
	return r
}

// Dimension adds a dimension key-value pair.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named metric value with a unit.
// Use the Unit* constants (UnitMilliseconds, UnitCount, UnitBytes, UnitNone).
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Count is a convenience for recording a count metric (value = 1).
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a non-metric field to the document.
func (r *Recorder) Property(key string, value any) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the document as one JSON line. Recorders without metrics and
// flushes while disabled write nothing. A Recorder must not be reused.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 {
		return
	}

	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink == nil {
		return
	}

	defs := make([]metricDef, 0, len(r.metrics))
	for _, name := range slices.Sorted(maps.Keys(r.metrics)) {
		defs = append(defs, r.metrics[name])
	}

	doc := make(map[string]any, 1+len(r.dimensions)+len(r.values)+len(r.properties))
	for k, v := range r.dimensions {
		doc[k] = v
	}
	maps.Copy(doc, r.values)
	maps.Copy(doc, r.properties)
	doc["_aws"] = emfDirective{
		Timestamp: time.Now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{slices.Sorted(maps.Keys(r.dimensions))},
			Metrics:    defs,
		}},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		log.Warn().Err(err).Str("namespace", r.namespace).Msg("Failed to marshal EMF document")
		return
	}
	sink.Write(append(data, '\n'))
}

// RecordRemoteCall emits latency and outcome for one call to the generative
// service. operation is "analysis" or "restoration".
func RecordRemoteCall(operation, model string, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	New(Namespace).
		Dimension("Operation", operation).
		Dimension("Result", result).
		Metric("RemoteCallMs", float64(elapsed.Milliseconds()), UnitMilliseconds).
		Count("RemoteCallResult").
		Property("model", model).
		Flush()
}
