package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kdimtricp/deepcheck/internal/apperrors"
	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/models"
	"github.com/kdimtricp/deepcheck/internal/processing"
)

// Gateway turns raw media into a validated Report. Implementations hold no
// per-request state and are safe for concurrent use.
type Gateway interface {
	Analyze(ctx context.Context, data []byte, fileName, mimeType string) (models.Report, error)
	TestConnection(ctx context.Context) bool
}

type CapabilityGateway struct {
	capability Capability
	ids        *processing.IDGenerator
	schema     models.Schema
	clock      func() time.Time
	logger     *logger.Logger
}

func NewCapabilityGateway(capability Capability, ids *processing.IDGenerator, log *logger.Logger) *CapabilityGateway {
	if log == nil {
		log = logger.Nop()
	}
	return &CapabilityGateway{
		capability: capability,
		ids:        ids,
		schema:     models.ReportSchema(),
		clock:      time.Now,
		logger:     log,
	}
}

func (g *CapabilityGateway) Analyze(ctx context.Context, data []byte, fileName, mimeType string) (models.Report, error) {
	fingerprint := processing.Fingerprint(data)

	prompt := BuildPrompt(PromptInput{
		FileName:    fileName,
		MimeType:    mimeType,
		Fingerprint: fingerprint,
		IDPrefix:    g.ids.Prefix,
		Today:       g.clock(),
	})

	payload, err := g.capability.Generate(ctx, CapabilityRequest{
		Data:     data,
		MimeType: mimeType,
		Prompt:   prompt,
		Schema:   g.schema.Body,
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return models.Report{}, err
		}
		return models.Report{}, apperrors.CapabilityUnavailable(err)
	}

	return g.normalize(payload, fingerprint)
}

// normalize decodes payload, replaces the fingerprint with the locally
// computed one and validates the result.
func (g *CapabilityGateway) normalize(payload []byte, fingerprint string) (models.Report, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return models.Report{}, apperrors.EmptyCapabilityResponse()
	}

	var candidate models.Candidate
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return models.Report{}, apperrors.MalformedCapabilityResponse(err)
	}

	if candidate.FileMetadata != nil {
		candidate.FileMetadata.ContentFingerprint = fingerprint
	}

	if !processing.IsIdentifier(candidate.ReportID, g.ids.Prefix) {
		id, err := g.ids.Mint()
		if err != nil {
			return models.Report{}, apperrors.Internal(err, "failed to mint report identifier")
		}
		if candidate.ReportID != "" {
			g.logger.Debug("Replacing non-canonical report id", "reported_id", candidate.ReportID, "report_id", id)
		}
		candidate.ReportID = id
	}

	report, err := models.Validate(candidate)
	if err != nil {
		return models.Report{}, apperrors.MalformedCapabilityResponse(err)
	}
	return report, nil
}

// TestConnection probes the capability. Every failure is reported as false.
func (g *CapabilityGateway) TestConnection(ctx context.Context) bool {
	text, err := g.capability.Ping(ctx)
	if err != nil {
		g.logger.Warn("Capability connection test failed", "error", err)
		return false
	}
	return strings.Contains(text, "Connection successful")
}

type PromptInput struct {
	FileName    string
	MimeType    string
	Fingerprint string
	IDPrefix    string
	Today       time.Time
}

func MediaKind(mimeType string) string {
	if strings.HasPrefix(mimeType, "video/") {
		return "video"
	}
	return "image"
}

func FileFormat(mimeType string) string {
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		return strings.ToUpper(sub)
	}
	return "UNKNOWN"
}

func BuildPrompt(in PromptInput) string {
	kind := MediaKind(in.MimeType)
	isVideo := kind == "video"

	pick := func(video, image string) string {
		if isVideo {
			return video
		}
		return image
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this %s for deepfake detection.\n\n", kind)
	b.WriteString("IMPORTANT INSTRUCTIONS:\n")
	fmt.Fprintf(&b, "1. Examine the %s carefully for signs of artificial generation or manipulation\n", kind)
	b.WriteString("2. Look for inconsistencies in facial features, lighting, shadows, and textures\n")
	b.WriteString("3. For videos: Check for temporal inconsistencies, unnatural movements, and lip-sync issues\n")
	b.WriteString("4. For images: Focus on facial artifacts, blending inconsistencies, and compression artifacts\n\n")

	b.WriteString("Please provide a comprehensive deepfake analysis report with the following details:\n")
	fmt.Fprintf(&b, "- Generate a unique report ID (format: %s-YYYYMMDD-HHMMSS-XXXXXX)\n", in.IDPrefix)
	b.WriteString("- Set prepared by as \"Gemini AI Analysis System\"\n")
	fmt.Fprintf(&b, "- Use today's date: %s\n", in.Today.Format("2 January 2006"))
	b.WriteString("- Tool used: \"Gemini 2.5 Pro\"\n")
	b.WriteString("- Detection engine version: \"2.5.0\"\n\n")

	b.WriteString("Case Overview:\n")
	b.WriteString("- Generate a case reference (format: CYB/XXXX/YYYY/)\n")
	b.WriteString("- Source: \"User Upload\"\n")
	fmt.Fprintf(&b, "- Content type: \"%s\"\n\n", pick("Video Content", "Image Content"))

	b.WriteString("File Metadata:\n")
	fmt.Fprintf(&b, "- File name: %q\n", in.FileName)
	fmt.Fprintf(&b, "- Format: %q\n", FileFormat(in.MimeType))
	fmt.Fprintf(&b, "- Duration: %s\n", pick(`"Analyze and provide duration"`, `"N/A"`))
	fmt.Fprintf(&b, "- Frame rate: %s\n", pick(`"Analyze and provide frame rate"`, `"N/A"`))
	fmt.Fprintf(&b, "- Content fingerprint: %q\n", in.Fingerprint)
	b.WriteString("- Creation date: \"Estimated based on analysis\"\n\n")

	b.WriteString("Detection Parameters:\n")
	fmt.Fprintf(&b, "- Frame sampling rate: %s\n", pick(`"1 frame/sec or appropriate rate"`, `"Single image analysis"`))
	b.WriteString("- Facial landmark detection: \"Enabled (68-point model)\"\n")
	fmt.Fprintf(&b, "- Audio-visual sync: %s\n", pick(`"Enabled"`, `"N/A"`))
	b.WriteString("- Classification threshold: 0.85\n\n")

	b.WriteString("Frame Analysis:\n")
	b.WriteString(pick(
		"Provide frame-by-frame analysis with timestamps, confidence scores, and FAKE/REAL labels\n\n",
		"Provide single frame analysis with confidence score and FAKE/REAL label\n\n",
	))

	b.WriteString("Summary:\n")
	b.WriteString("- Overall verdict: FAKE/REAL/INCONCLUSIVE based on your analysis\n")
	b.WriteString("- Average confidence score\n")
	b.WriteString("- Total frames analyzed\n")
	b.WriteString("- Count of fake vs real frames detected\n")
	if isVideo {
		b.WriteString("- Optionally a temporal consistency score with interpretation and an audio-visual sync deviation index with observation\n")
	}
	b.WriteString("- Optionally a detailed summary with a confidence score, operational threshold and narrative content\n\n")

	fmt.Fprintf(&b, "Base your analysis on actual visual inspection of the provided %s.", kind)
	return b.String()
}
