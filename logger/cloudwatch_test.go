package logger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

// fakeCloudWatch answers the query-protocol calls used here and records the
// actions it saw.
type fakeCloudWatch struct {
	mu              sync.Mutex
	actions         []string
	dashboardExists bool
	body            string
}

func (f *fakeCloudWatch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	action := r.PostForm.Get("Action")

	f.mu.Lock()
	f.actions = append(f.actions, action)
	if action == "PutDashboard" {
		f.body = r.PostForm.Get("DashboardBody")
	}
	exists := f.dashboardExists
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml")
	switch {
	case action == "GetDashboard" && !exists:
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`<ErrorResponse><Error><Type>Sender</Type><Code>ResourceNotFound</Code><Message>Dashboard does not exist</Message></Error><RequestId>req-1</RequestId></ErrorResponse>`))
	default:
		w.Write([]byte(`<` + action + `Response><` + action + `Result></` + action + `Result><ResponseMetadata><RequestId>req-1</RequestId></ResponseMetadata></` + action + `Response>`))
	}
}

func (f *fakeCloudWatch) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

func withFakeCloudWatch(t *testing.T, fake *fakeCloudWatch) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	prevClient, prevNamespace, prevDashboard := cwClient, cwNamespace, cwDashboard
	t.Cleanup(func() { cwClient, cwNamespace, cwDashboard = prevClient, prevNamespace, prevDashboard })

	useCloudWatch(cloudwatch.New(cloudwatch.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(srv.URL),
		Credentials:      credentials.NewStaticCredentialsProvider("key", "secret", ""),
		RetryMaxAttempts: 1,
	}), "HeatmapTest", "heatmap-test")
}

func TestEnsureDashboardCreatesMissingDashboard(t *testing.T) {
	fake := &fakeCloudWatch{}
	withFakeCloudWatch(t, fake)

	EnsureDashboard(context.Background())

	got := fake.seen()
	if len(got) != 2 || got[0] != "GetDashboard" || got[1] != "PutDashboard" {
		t.Fatalf("unexpected actions: %v", got)
	}
	if !strings.Contains(fake.body, "HeatmapTest,market,screener") {
		t.Errorf("dashboard does not search by dataset: %s", fake.body)
	}
}

func TestEnsureDashboardKeepsExistingDashboard(t *testing.T) {
	fake := &fakeCloudWatch{dashboardExists: true}
	withFakeCloudWatch(t, fake)

	EnsureDashboard(context.Background())

	if got := fake.seen(); len(got) != 1 || got[0] != "GetDashboard" {
		t.Fatalf("existing dashboard was rewritten: %v", got)
	}
}

func TestEnsureDashboardWithoutClient(t *testing.T) {
	prev := cwClient
	cwClient = nil
	defer func() { cwClient = prev }()

	EnsureDashboard(context.Background())
}

func TestDashboardBodyIsValidJSON(t *testing.T) {
	var body map[string]interface{}
	if err := json.Unmarshal([]byte(dashboardBody("Heatmapflow")), &body); err != nil {
		t.Fatalf("dashboard body is not JSON: %v", err)
	}
	for _, name := range breadthMetrics {
		if !strings.Contains(dashboardBody("Heatmapflow"), `MetricName=\"`+name+`\"`) {
			t.Errorf("metric %s missing from dashboard", name)
		}
	}
}

func TestDimensionsOfSortsAndDropsEmpty(t *testing.T) {
	dims := dimensionsOf(map[string]string{"screener": "america", "market": "stock", "run": ""})
	if len(dims) != 2 {
		t.Fatalf("expected 2 dimensions, got %d", len(dims))
	}
	if aws.ToString(dims[0].Name) != "market" || aws.ToString(dims[0].Value) != "stock" {
		t.Errorf("unexpected first dimension: %s=%s", aws.ToString(dims[0].Name), aws.ToString(dims[0].Value))
	}
	if aws.ToString(dims[1].Name) != "screener" || aws.ToString(dims[1].Value) != "america" {
		t.Errorf("unexpected second dimension: %s=%s", aws.ToString(dims[1].Name), aws.ToString(dims[1].Value))
	}
}
