package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/models"
	"github.com/kdimtricp/deepcheck/internal/processing"
)

type mockCapability struct {
	payload  []byte
	err      error
	pingText string
	pingErr  error

	lastRequest CapabilityRequest
}

func (m *mockCapability) Generate(ctx context.Context, req CapabilityRequest) ([]byte, error) {
	m.lastRequest = req
	return m.payload, m.err
}

func (m *mockCapability) Ping(ctx context.Context) (string, error) {
	return m.pingText, m.pingErr
}

func validPayload(t *testing.T, mutate func(m map[string]any)) []byte {
	t.Helper()
	m := map[string]any{
		"reportId":               "DFVD-20250101-120000-ABC123",
		"preparedBy":             "Gemini AI Analysis System",
		"dateOfAnalysis":         "1 January 2025",
		"toolModelUsed":          "Gemini 2.5 Pro",
		"detectionEngineVersion": "2.5.0",
		"caseOverview": map[string]any{
			"caseReference": "CYB/0001/2025/", "sourceOfVideo": "User Upload", "suspectedContentType": "Image Content",
		},
		"fileMetadata": map[string]any{
			"fileName": "face.png", "fileFormat": "PNG", "duration": "N/A", "frameRate": "N/A",
			"contentFingerprint": "0000000000000000000000000000dead", "dateOfFileCreation": "unknown",
		},
		"detectionParameters": map[string]any{
			"frameSamplingRate": "Single image analysis", "facialLandmarkDetection": "Enabled",
			"audioVisualSyncCheck": "N/A", "classificationThreshold": 0.85,
		},
		"frameClassifications": []any{
			map[string]any{"frameNumber": 1, "timestamp": "00:00", "confidence": 0.93, "label": "FAKE"},
		},
		"overallVerdict":      "FAKE",
		"averageConfidence":   0.93,
		"totalFramesAnalyzed": 1,
		"fakeFramesDetected":  1,
		"realFramesDetected":  0,
	}
	if mutate != nil {
		mutate(m)
	}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	return raw
}

func newTestGateway(capability Capability) *CapabilityGateway {
	ids := processing.NewIDGenerator("DFVD")
	g := NewCapabilityGateway(capability, ids, nil)
	g.clock = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	return g
}

func TestAnalyzeOverwritesFingerprint(t *testing.T) {
	data := []byte("png bytes")
	capability := &mockCapability{payload: validPayload(t, nil)}

	report, err := newTestGateway(capability).Analyze(context.Background(), data, "face.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, processing.Fingerprint(data), report.FileMetadata.ContentFingerprint)
	assert.Equal(t, "DFVD-20250101-120000-ABC123", report.ReportID)
	assert.Equal(t, models.VerdictFake, report.OverallVerdict)

	assert.Equal(t, "image/png", capability.lastRequest.MimeType)
	assert.Equal(t, data, capability.lastRequest.Data)
	assert.NotNil(t, capability.lastRequest.Schema)
	assert.Contains(t, capability.lastRequest.Prompt, processing.Fingerprint(data))
	assert.Contains(t, capability.lastRequest.Prompt, "1 January 2025")
}

func TestAnalyzeMintsIdentifierWhenNotCanonical(t *testing.T) {
	for _, id := range []string{"", "DFVD-2025-0101-001"} {
		capability := &mockCapability{payload: validPayload(t, func(m map[string]any) { m["reportId"] = id })}

		report, err := newTestGateway(capability).Analyze(context.Background(), []byte("x"), "face.png", "image/png")
		require.NoError(t, err)
		assert.True(t, processing.IsIdentifier(report.ReportID, "DFVD"), report.ReportID)
	}
}

func TestAnalyzeNormalisesMissingFrames(t *testing.T) {
	capability := &mockCapability{payload: validPayload(t, func(m map[string]any) {
		delete(m, "frameClassifications")
		m["totalFramesAnalyzed"] = 0
		m["fakeFramesDetected"] = 0
	})}

	report, err := newTestGateway(capability).Analyze(context.Background(), []byte("x"), "face.png", "image/png")
	require.NoError(t, err)
	assert.NotNil(t, report.FrameClassifications)
	assert.Empty(t, report.FrameClassifications)
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name       string
		capability *mockCapability
		code       apperrors.Code
	}{
		{
			name:       "empty payload",
			capability: &mockCapability{payload: nil},
			code:       apperrors.CodeEmptyCapabilityResponse,
		},
		{
			name:       "whitespace payload",
			capability: &mockCapability{payload: []byte("  \n")},
			code:       apperrors.CodeEmptyCapabilityResponse,
		},
		{
			name:       "not json",
			capability: &mockCapability{payload: []byte("I think it is fake")},
			code:       apperrors.CodeMalformedCapabilityResponse,
		},
		{
			name:       "transport error",
			capability: &mockCapability{err: errors.New("connection reset")},
			code:       apperrors.CodeCapabilityUnavailable,
		},
		{
			name:       "not configured",
			capability: &mockCapability{err: apperrors.CapabilityNotConfigured("GEMINI_API_KEY is not configured")},
			code:       apperrors.CodeCapabilityNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestGateway(tt.capability).Analyze(context.Background(), []byte("x"), "a.png", "image/png")
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}

func TestAnalyzeRejectsInvalidShapeAsMalformed(t *testing.T) {
	capability := &mockCapability{payload: validPayload(t, func(m map[string]any) {
		m["averageConfidence"] = 7
	})}

	_, err := newTestGateway(capability).Analyze(context.Background(), []byte("x"), "a.png", "image/png")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeMalformedCapabilityResponse))
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidReportShape))
}

func TestTestConnection(t *testing.T) {
	g := newTestGateway(&mockCapability{pingText: "Connection successful!"})
	assert.True(t, g.TestConnection(context.Background()))

	g = newTestGateway(&mockCapability{pingText: "hello"})
	assert.False(t, g.TestConnection(context.Background()))

	g = newTestGateway(&mockCapability{pingErr: errors.New("dns failure")})
	assert.False(t, g.TestConnection(context.Background()))
}

func TestBuildPromptVariesByMediaKind(t *testing.T) {
	video := BuildPrompt(PromptInput{FileName: "clip.mp4", MimeType: "video/mp4", IDPrefix: "DFVD", Today: time.Now()})
	image := BuildPrompt(PromptInput{FileName: "face.jpg", MimeType: "image/jpeg", IDPrefix: "DFVD", Today: time.Now()})

	assert.Contains(t, video, "Analyze this video")
	assert.Contains(t, video, `"MP4"`)
	assert.Contains(t, image, "Analyze this image")
	assert.Contains(t, image, "Single image analysis")
	assert.Contains(t, image, "DFVD-YYYYMMDD-HHMMSS-XXXXXX")
}

func TestFakeGatewayIsDeterministicPerContent(t *testing.T) {
	g := NewFakeGateway(processing.NewIDGenerator("DFVD"))
	ctx := context.Background()

	a, err := g.Analyze(ctx, []byte("same bytes"), "clip.mp4", "video/mp4")
	require.NoError(t, err)
	b, err := g.Analyze(ctx, []byte("same bytes"), "clip.mp4", "video/mp4")
	require.NoError(t, err)

	assert.Equal(t, a.FrameClassifications, b.FrameClassifications)
	assert.Equal(t, a.OverallVerdict, b.OverallVerdict)
	assert.Len(t, a.FrameClassifications, fakeVideoFrames)
	assert.NotNil(t, a.TemporalConsistency)

	_, err = models.Validate(models.CandidateFromReport(a))
	assert.NoError(t, err)

	img, err := g.Analyze(ctx, []byte("img"), "face.png", "image/png")
	require.NoError(t, err)
	assert.Len(t, img.FrameClassifications, 1)
	assert.Nil(t, img.TemporalConsistency)

	g.Offline = true
	assert.False(t, g.TestConnection(ctx))
	_, err = g.Analyze(ctx, []byte("img"), "face.png", "image/png")
	assert.True(t, apperrors.Is(err, apperrors.CodeCapabilityUnavailable))
}
