package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func enableBuffer(t *testing.T, serviceName string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Enable(&buf, serviceName)
	t.Cleanup(Disable)
	return &buf
}

func TestNew_ServiceDimension(t *testing.T) {
	enableBuffer(t, "photo-restorer")

	r := New("TestNamespace")
	if r.namespace != "TestNamespace" {
		t.Errorf("expected namespace TestNamespace, got %s", r.namespace)
	}
	if r.dimensions["Service"] != "photo-restorer" {
		t.Errorf("expected Service dimension photo-restorer, got %s", r.dimensions["Service"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := enableBuffer(t, "")

	New(Namespace).
		Dimension("Operation", "analysis").
		Metric("LatencyMs", 1234.5, UnitMilliseconds).
		Metric("CallCount", 1, UnitCount).
		Property("sessionId", "abc-123").
		Flush()

	output := buf.String()
	if strings.Count(output, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", output)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, output)
	}

	awsMap, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}
	cwArr, ok := awsMap["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != Namespace {
		t.Errorf("expected namespace %s, got %v", Namespace, cw["Namespace"])
	}

	if doc["Operation"] != "analysis" {
		t.Errorf("expected Operation=analysis, got %v", doc["Operation"])
	}
	if doc["LatencyMs"] != 1234.5 {
		t.Errorf("expected LatencyMs=1234.5, got %v", doc["LatencyMs"])
	}
	if doc["CallCount"] != float64(1) {
		t.Errorf("expected CallCount=1, got %v", doc["CallCount"])
	}
	if doc["sessionId"] != "abc-123" {
		t.Errorf("expected sessionId=abc-123, got %v", doc["sessionId"])
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	buf := enableBuffer(t, "")

	New("Test").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorder_DisabledDropsOutput(t *testing.T) {
	buf := enableBuffer(t, "")
	Disable()

	New("Test").Count("Calls").Flush()
	if buf.Len() != 0 {
		t.Errorf("expected no output while disabled, got: %s", buf.String())
	}
}

func TestRecorder_Chaining(t *testing.T) {
	rec := New("Test").
		Dimension("Op", "test").
		Metric("Duration", 100, UnitMilliseconds).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Duration"] != float64(100) {
		t.Error("chaining Metric failed")
	}
	if rec.values["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}

func TestRecordRemoteCall(t *testing.T) {
	buf := enableBuffer(t, "")

	RecordRemoteCall("restoration", "gemini-2.5-flash-image-preview", 1500*time.Millisecond, errors.New("boom"))

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc["Operation"] != "restoration" || doc["Result"] != "error" {
		t.Errorf("unexpected dimensions: Operation=%v Result=%v", doc["Operation"], doc["Result"])
	}
	if doc["RemoteCallMs"] != float64(1500) {
		t.Errorf("RemoteCallMs = %v, want 1500", doc["RemoteCallMs"])
	}
	if doc["model"] != "gemini-2.5-flash-image-preview" {
		t.Errorf("model = %v", doc["model"])
	}
}
