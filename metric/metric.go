// Package metric exposes supply counters of chains through expvar.
//
// Counters are aggregated per component type, so all chains of a process
// share the same set of variables.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dudk/clipchain/signal"
)

const componentsLabel = "clipchain.components"

const (
	// CallCounter measures number of supply calls.
	CallCounter = "Calls"
	// WrittenCounter measures number of frames written to destinations.
	WrittenCounter = "FramesWritten"
	// ConsumedCounter measures number of consumed material frames.
	ConsumedCounter = "FramesConsumed"
	// EndCounter measures number of responses that reached the end.
	EndCounter = "Ends"
	// LatencyCounter measures latency between supply calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of supplied signal.
	DurationCounter = "Duration"
	// ComponentCounter counts number of metered components.
	ComponentCounter = "Components"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		CallCounter,
		WrittenCounter,
		ConsumedCounter,
		EndCounter,
		LatencyCounter,
		DurationCounter,
		ComponentCounter,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(getType(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone metrics
// capture until component is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when a supply call returns.
type MeasureFunc func(written, consumed int, endReached bool)

// Meter creates new meter closure to capture component counters. Frame
// rate is used to convert written frames to duration.
func Meter(component interface{}, frameRate float64) ResetFunc {
	t := getType(component)
	metric := components.get(t)
	metric.components.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		var (
			frames         int
			framesDuration time.Duration
		)
		return func(written, consumed int, endReached bool) {
			metric.latency.set(time.Since(calledAt))
			metric.calls.Add(1)
			metric.written.Add(int64(written))
			metric.consumed.Add(int64(consumed))
			if endReached {
				metric.ends.Add(1)
			}
			// recalculate duration only when block size has changed
			if frames != written {
				frames = written
				framesDuration = signal.DurationOf(frameRate, int64(written))
			}
			metric.duration.add(framesDuration)
			calledAt = time.Now()
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	key        string
	components *expvar.Int
	calls      *expvar.Int
	written    *expvar.Int
	consumed   *expvar.Int
	ends       *expvar.Int
	latency    *duration
	duration   *duration
}

func newMetric(componentType string) metric {
	m := metric{
		key:        componentType,
		components: expvar.NewInt(key(componentType, ComponentCounter)),
		calls:      expvar.NewInt(key(componentType, CallCounter)),
		written:    expvar.NewInt(key(componentType, WrittenCounter)),
		consumed:   expvar.NewInt(key(componentType, ConsumedCounter)),
		ends:       expvar.NewInt(key(componentType, EndCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(componentType, LatencyCounter), m.latency)
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

func getType(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%v", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
