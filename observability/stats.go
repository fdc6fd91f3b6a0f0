package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/rbset/lib/infra"
)

var (
	once    sync.Once
	appStat *appStats
)

type appStats struct {
	goroutines metric.Int64ObservableUpDownCounter
	processes  metric.Int64ObservableUpDownCounter
}

// InitAppStats registers the goroutine and GOMAXPROCS observers and starts
// the otel runtime instrumentation, once per process.
// It has to be called after the meter provider is set into otel global.
func InitAppStats(name string) (err error) {
	once.Do(func() {
		builder := &strings.Builder{}
		builder.WriteString("rbset/app")
		if len(strings.TrimSpace(name)) > 0 {
			builder.Write([]byte("/"))
			builder.WriteString(name)
		} else {
			builder.Write([]byte("/"))
			builder.WriteString("default")
		}
		name = builder.String()
		meter := otel.Meter(
			name,
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		appStat = &appStats{
			goroutines: lo.Must[metric.Int64ObservableUpDownCounter](meter.
				Int64ObservableUpDownCounter(
					"app.core.goroutines",
					metric.WithDescription(`The application goroutines' info.`),
					metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
						gNum := runtime.NumGoroutine()
						ob.Observe(int64(gNum))
						return nil
					}),
				),
			),
			processes: lo.Must[metric.Int64ObservableUpDownCounter](meter.
				Int64ObservableUpDownCounter(
					"app.core.processes",
					metric.WithDescription(`The application processes' info.`),
					metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
						procs := runtime.GOMAXPROCS(0)
						ob.Observe(int64(procs))
						return nil
					}),
				),
			),
		}
		if rErr := otelruntime.Start(); rErr != nil {
			err = infra.WrapErrorStackWithMessage(rErr, "start otel runtime instrumentation")
		}
	})
	return err
}
