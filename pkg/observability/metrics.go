package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes operation counters to CloudWatch. A nil *Metrics is a
// no-op so tests and local development need no CloudWatch client.
type Metrics struct {
	client    *cloudwatch.Client
	namespace string
	logger    *zap.Logger
}

// NewMetrics creates a CloudWatch-backed metrics publisher
func NewMetrics(client *cloudwatch.Client, namespace string, logger *zap.Logger) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// CountLinkCreated records a committed context link
func (m *Metrics) CountLinkCreated(ctx context.Context) { m.count(ctx, "LinkCreated") }

// CountLinkDeleted records a removed context link
func (m *Metrics) CountLinkDeleted(ctx context.Context) { m.count(ctx, "LinkDeleted") }

// CountCycleRejected records a link proposal blocked by the cycle guard
func (m *Metrics) CountCycleRejected(ctx context.Context) { m.count(ctx, "CycleRejected") }

// CountBranchCreated records a branch fork
func (m *Metrics) CountBranchCreated(ctx context.Context) { m.count(ctx, "BranchCreated") }

// CountNodeDeleted records a node cascade deletion
func (m *Metrics) CountNodeDeleted(ctx context.Context) { m.count(ctx, "NodeDeleted") }

func (m *Metrics) count(ctx context.Context, name string) {
	if m == nil || m.client == nil {
		return
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(1),
				Unit:       types.StandardUnitCount,
				Timestamp:  aws.Time(time.Now()),
			},
		},
	})
	if err != nil && m.logger != nil {
		m.logger.Debug("Failed to publish metric",
			zap.String("metric", name),
			zap.Error(err),
		)
	}
}
