package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// breadthMetrics are the run gauges plotted on the heatmap dashboard.
var breadthMetrics = []string{"records_extracted", "gainers", "losers", "unchanged", "fields_defaulted"}

var cwClient *cloudwatch.Client
var cwNamespace = "Heatmapflow"
var cwDashboard = "Heatmapflow"

// InitCloudWatch creates the metrics client for this process. An empty region
// falls back to AWS_REGION. On failure metrics stay disabled and the run goes on.
func InitCloudWatch(ctx context.Context, region, namespace, dashboard string) {
	log := GetLogger().WithComponent("cloudwatch")

	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.WithError(err).Warn("failed to load AWS configuration; CloudWatch metrics disabled")
		return
	}
	useCloudWatch(cloudwatch.NewFromConfig(cfg), namespace, dashboard)

	log.WithFields(Fields{"region": region, "namespace": cwNamespace}).Debug("CloudWatch metrics enabled")
}

func useCloudWatch(client *cloudwatch.Client, namespace, dashboard string) {
	cwClient = client
	if namespace != "" {
		cwNamespace = namespace
	}
	if dashboard != "" {
		cwDashboard = dashboard
	}
}

func publishMetrics(ctx context.Context, data []cwtypes.MetricDatum) {
	if cwClient == nil || len(data) == 0 {
		return
	}
	log := GetLogger().WithComponent("cloudwatch")

	if _, err := cwClient.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(cwNamespace),
		MetricData: data,
	}); err != nil {
		log.WithError(err).Warn("failed to publish CloudWatch metrics")
		return
	}

	names := make([]string, 0, len(data))
	for _, datum := range data {
		names = append(names, aws.ToString(datum.MetricName))
	}
	log.WithField("metrics", strings.Join(names, ",")).Debug("published metrics to CloudWatch")
}

// dimensionsOf turns run labels such as market and screener into CloudWatch
// dimensions, ordered by name so repeated runs land on the same series.
func dimensionsOf(labels map[string]string) []cwtypes.Dimension {
	names := make([]string, 0, len(labels))
	for name, v := range labels {
		if v != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	dims := make([]cwtypes.Dimension, 0, len(names))
	for _, name := range names {
		dims = append(dims, cwtypes.Dimension{Name: aws.String(name), Value: aws.String(labels[name])})
	}
	return dims
}

// dashboardBody plots every breadth gauge for every market/screener pair
// that has published one.
func dashboardBody(namespace string) string {
	metrics := make([]string, 0, len(breadthMetrics))
	for i, name := range breadthMetrics {
		metrics = append(metrics, fmt.Sprintf(
			`[{"expression":"SEARCH('{%s,market,screener} MetricName=\"%s\"', 'Maximum', 86400)","id":"m%d","label":"%s"}]`,
			namespace, name, i, name))
	}
	return fmt.Sprintf(`{"widgets":[{"type":"metric","width":24,"height":6,"properties":{"metrics":[%s],"view":"timeSeries","region":"%s","title":"Heatmap breadth by dataset"}}]}`,
		strings.Join(metrics, ","), cwRegion())
}

func cwRegion() string {
	if cwClient == nil {
		return ""
	}
	return cwClient.Options().Region
}

// EnsureDashboard creates the breadth dashboard the first time it is needed.
// An existing dashboard is left as is so manual edits survive later runs.
func EnsureDashboard(ctx context.Context) {
	if cwClient == nil {
		return
	}
	log := GetLogger().WithComponent("cloudwatch").WithFields(Fields{"dashboard": cwDashboard})

	_, err := cwClient.GetDashboard(ctx, &cloudwatch.GetDashboardInput{DashboardName: aws.String(cwDashboard)})
	if err == nil {
		return
	}
	var notFound *cwtypes.DashboardNotFoundError
	if !errors.As(err, &notFound) {
		log.WithError(err).Warn("failed to look up CloudWatch dashboard")
		return
	}

	if _, err := cwClient.PutDashboard(ctx, &cloudwatch.PutDashboardInput{
		DashboardName: aws.String(cwDashboard),
		DashboardBody: aws.String(dashboardBody(cwNamespace)),
	}); err != nil {
		log.WithError(err).Warn("failed to create CloudWatch dashboard")
		return
	}
	log.Info("created CloudWatch dashboard")
}
