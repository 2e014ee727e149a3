package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the storefront.
const (
	MetricOrdersPlaced   = "OrdersPlaced"
	MetricOrderValue     = "OrderValue"
	MetricOrderItems     = "OrderItems"
	MetricCheckoutFailed = "CheckoutFailed"
)

// Metrics publishes custom CloudWatch metrics under one namespace.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetrics returns a Metrics publisher. A nil client or empty namespace disables it.
func NewMetrics(client CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		CloudWatch: client,
		Namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// Datum is one metric observation.
type Datum struct {
	Name  string
	Value float64
	Unit  cwtypes.StandardUnit
}

// Count is a Datum with unit Count.
func Count(name string, v float64) Datum {
	return Datum{Name: name, Value: v, Unit: cwtypes.StandardUnitCount}
}

// Put sends all data points in a single PutMetricData call.
func (m *Metrics) Put(ctx context.Context, data ...Datum) error {
	if m == nil || m.CloudWatch == nil || m.Namespace == "" || len(data) == 0 {
		return nil
	}
	now := m.nowFunc()
	datums := make([]cwtypes.MetricDatum, 0, len(data))
	for _, d := range data {
		unit := d.Unit
		if unit == "" {
			unit = cwtypes.StandardUnitNone
		}
		datums = append(datums, cwtypes.MetricDatum{
			MetricName: awsString(d.Name),
			Value:      awsFloat(d.Value),
			Unit:       unit,
			Timestamp:  &now,
		})
	}
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  awsString(m.Namespace),
		MetricData: datums,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func awsFloat(f float64) *float64 { return &f }
