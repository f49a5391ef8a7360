package models

// SchemaVersion identifies the structured-output contract sent to the
// classification capability. Bump it whenever ReportSchema changes shape.
const SchemaVersion = "2"

// Schema is a structured-output descriptor in the capability's OpenAPI
// subset (upper-case type names, propertyOrdering).
type Schema struct {
	Version string
	Body    map[string]any
}

func str(desc string) map[string]any {
	return map[string]any{"type": "STRING", "description": desc}
}

func num(desc string) map[string]any {
	return map[string]any{"type": "NUMBER", "description": desc}
}

func integer(desc string) map[string]any {
	return map[string]any{"type": "INTEGER", "description": desc}
}

func object(props map[string]any, order []string, required []string) map[string]any {
	o := map[string]any{
		"type":             "OBJECT",
		"properties":       props,
		"propertyOrdering": order,
	}
	if required != nil {
		o["required"] = required
	}
	return o
}

// ReportSchema returns a fresh copy of the report descriptor. Callers may
// mutate the result.
func ReportSchema() Schema {
	top := []string{
		"reportId", "preparedBy", "dateOfAnalysis", "toolModelUsed", "detectionEngineVersion",
		"caseOverview", "fileMetadata", "detectionParameters", "frameClassifications",
		"overallVerdict", "averageConfidence", "totalFramesAnalyzed",
		"fakeFramesDetected", "realFramesDetected",
	}
	order := append(append([]string(nil), top...), "temporalConsistency", "audioVisualSync", "detailedSummary")

	frame := object(map[string]any{
		"frameNumber": integer("Frame number in the sequence"),
		"timestamp":   str("Timestamp in MM:SS format"),
		"confidence":  num("Confidence score for this frame between 0 and 1"),
		"label": map[string]any{
			"type":        "STRING",
			"enum":        []string{string(LabelFake), string(LabelReal)},
			"description": "Classification label for this frame",
		},
	}, []string{"frameNumber", "timestamp", "confidence", "label"},
		[]string{"frameNumber", "timestamp", "confidence", "label"})

	body := object(map[string]any{
		"reportId":               str("Unique identifier for this analysis report"),
		"preparedBy":             str("Name of the analysis system"),
		"dateOfAnalysis":         str("Current date in format: DD Month YYYY"),
		"toolModelUsed":          str("Model used for the analysis"),
		"detectionEngineVersion": str("Version of the detection system"),
		"caseOverview": object(map[string]any{
			"caseReference":        str("Auto-generated case reference number"),
			"sourceOfVideo":        str("Source or origin of the uploaded media"),
			"suspectedContentType": str("Type of content being analyzed"),
		}, []string{"caseReference", "sourceOfVideo", "suspectedContentType"},
			[]string{"caseReference", "sourceOfVideo", "suspectedContentType"}),
		"fileMetadata": object(map[string]any{
			"fileName":           str("Name of the uploaded file"),
			"fileFormat":         str("Format of the media file (mp4, jpg, png, etc.)"),
			"duration":           str("Duration for videos, or 'N/A' for images"),
			"frameRate":          str("Frame rate for videos, or 'N/A' for images"),
			"contentFingerprint": str("Content fingerprint of the file for integrity verification"),
			"dateOfFileCreation": str("Estimated creation date of the media file"),
		}, []string{"fileName", "fileFormat", "duration", "frameRate", "contentFingerprint", "dateOfFileCreation"},
			[]string{"fileName", "fileFormat", "duration", "frameRate", "contentFingerprint", "dateOfFileCreation"}),
		"detectionParameters": object(map[string]any{
			"frameSamplingRate":       str("Rate at which frames were sampled for analysis"),
			"facialLandmarkDetection": str("Status of facial landmark detection"),
			"audioVisualSyncCheck":    str("Status of audio-visual synchronization check"),
			"classificationThreshold": num("Confidence threshold for fake classification"),
		}, []string{"frameSamplingRate", "facialLandmarkDetection", "audioVisualSyncCheck", "classificationThreshold"},
			[]string{"frameSamplingRate", "facialLandmarkDetection", "audioVisualSyncCheck", "classificationThreshold"}),
		"frameClassifications": map[string]any{
			"type":        "ARRAY",
			"items":       frame,
			"description": "Frame-by-frame analysis results",
		},
		"overallVerdict": map[string]any{
			"type":        "STRING",
			"enum":        []string{string(VerdictFake), string(VerdictReal), string(VerdictInconclusive)},
			"description": "Overall conclusion of the analysis",
		},
		"averageConfidence":   num("Average confidence score across all analyzed frames"),
		"totalFramesAnalyzed": integer("Total number of frames that were analyzed"),
		"fakeFramesDetected":  integer("Number of frames classified as fake"),
		"realFramesDetected":  integer("Number of frames classified as real"),
		"temporalConsistency": nullable(object(map[string]any{
			"score":          num("Temporal consistency score between 0 and 1"),
			"interpretation": str("Interpretation of the temporal consistency score"),
		}, []string{"score", "interpretation"}, nil)),
		"audioVisualSync": nullable(object(map[string]any{
			"deviationIndex": num("Audio-visual deviation index"),
			"observation":    str("Observation about lip-sync and audio alignment"),
		}, []string{"deviationIndex", "observation"}, nil)),
		"detailedSummary": nullable(object(map[string]any{
			"confidenceScore":      num("Overall confidence score between 0 and 1"),
			"operationalThreshold": num("Operational decision threshold"),
			"content":              str("Narrative summary of the findings"),
		}, []string{"confidenceScore", "operationalThreshold", "content"}, nil)),
	}, order, top)

	return Schema{Version: SchemaVersion, Body: body}
}

func nullable(o map[string]any) map[string]any {
	o["nullable"] = true
	return o
}
