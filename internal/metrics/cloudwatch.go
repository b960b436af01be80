// Package metrics emits operational metrics for freezewatch runs to AWS
// CloudWatch. Emission is best-effort: a metrics failure is logged and never
// fails the run. An empty namespace disables metrics via the Nop recorder.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"freezewatch/internal/types"
)

// Metric and dimension names.
const (
	MetricAlertsEmitted    = "AlertsEmitted"
	MetricNotifyFailure    = "NotifyFailure"
	MetricProviderFallback = "ProviderFallback"
	MetricRunDuration      = "RunDuration"

	DimKind   = "Kind"
	DimSource = "Source"
)

// Recorder records run-level metrics. Implementations must never fail the
// caller.
type Recorder interface {
	RecordAlert(ctx context.Context, kind types.AlertKind)
	RecordNotifyFailure(ctx context.Context)
	RecordProviderFallback(ctx context.Context, source string)
	RecordRunDuration(ctx context.Context, d time.Duration)
}

// Nop is a Recorder that discards all metrics.
type Nop struct{}

func (Nop) RecordAlert(context.Context, types.AlertKind) {}

func (Nop) RecordNotifyFailure(context.Context) {}

func (Nop) RecordProviderFallback(context.Context, string) {}

func (Nop) RecordRunDuration(context.Context, time.Duration) {}

// CloudWatchAPI abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder implements Recorder by publishing to a CloudWatch
// namespace.
type CloudWatchRecorder struct {
	client    CloudWatchAPI
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchRecorder creates a CloudWatchRecorder publishing to the given
// namespace.
func NewCloudWatchRecorder(client CloudWatchAPI, namespace string, logger *slog.Logger) *CloudWatchRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordAlert counts one emitted alert, dimensioned by kind.
func (r *CloudWatchRecorder) RecordAlert(ctx context.Context, kind types.AlertKind) {
	r.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(MetricAlertsEmitted),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(DimKind), Value: aws.String(string(kind))},
		},
	})
}

// RecordNotifyFailure counts one failed notification delivery.
func (r *CloudWatchRecorder) RecordNotifyFailure(ctx context.Context) {
	r.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(MetricNotifyFailure),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
	})
}

// RecordProviderFallback counts one forecast source failure, dimensioned by
// the source that failed.
func (r *CloudWatchRecorder) RecordProviderFallback(ctx context.Context, source string) {
	r.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(MetricProviderFallback),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(DimSource), Value: aws.String(source)},
		},
	})
}

// RecordRunDuration records the wall-clock duration of a full run in
// milliseconds.
func (r *CloudWatchRecorder) RecordRunDuration(ctx context.Context, d time.Duration) {
	r.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(MetricRunDuration),
		Value:      aws.Float64(float64(d.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
	})
}

func (r *CloudWatchRecorder) put(ctx context.Context, datum cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	}
	if _, err := r.client.PutMetricData(ctx, input); err != nil {
		r.logger.WarnContext(ctx, "failed to publish metric",
			"metric", aws.ToString(datum.MetricName),
			"error", err,
		)
	}
}

// Compile-time assertions.
var (
	_ Recorder = Nop{}
	_ Recorder = (*CloudWatchRecorder)(nil)
)
