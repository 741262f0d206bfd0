package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// maxDatums per PutMetricData call.
const maxDatums = 20

// CloudWatchAPI is the subset of the CloudWatch client used here.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics implements ports.Metrics for Lambda. Data points are
// buffered and sent by Flush, which the handler calls once per invocation.
type CloudWatchMetrics struct {
	client    CloudWatchAPI
	namespace string
	now       func() time.Time
	logger    *zap.Logger

	mu      sync.Mutex
	pending []types.MetricDatum
}

func NewCloudWatchMetrics(client CloudWatchAPI, namespace string, logger *zap.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudWatchMetrics{client: client, namespace: namespace, now: time.Now, logger: logger}
}

func (m *CloudWatchMetrics) IncCounter(name string, labels map[string]string) {
	m.add(name, 1, types.StandardUnitCount, labels)
}

func (m *CloudWatchMetrics) ObserveDuration(name string, d time.Duration, labels map[string]string) {
	m.add(name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, labels)
}

func (m *CloudWatchMetrics) add(name string, value float64, unit types.StandardUnit, labels map[string]string) {
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dimensions(labels),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(m.now()),
	}

	m.mu.Lock()
	m.pending = append(m.pending, datum)
	m.mu.Unlock()
}

// Flush sends buffered data points. Failures are logged and the points dropped.
func (m *CloudWatchMetrics) Flush(ctx context.Context) {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for i := 0; i < len(pending); i += maxDatums {
		end := min(i+maxDatums, len(pending))
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: pending[i:end],
		})
		if err != nil {
			m.logger.Warn("Failed to send metrics",
				zap.Int("datums", end-i),
				zap.Error(err),
			)
		}
	}
}

func dimensions(labels map[string]string) []types.Dimension {
	dims := make([]types.Dimension, 0, len(labels))
	for _, k := range labelKeys(labels) {
		dims = append(dims, types.Dimension{Name: aws.String(k), Value: aws.String(labels[k])})
	}
	return dims
}
