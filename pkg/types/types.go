package types

// Box is a pixel bounding box as reported by the detection service
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Detection is one object hypothesis for an image
type Detection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Box   *Box    `json:"box,omitempty"`
}

// Confidence is the coarse trust level attached to a suggestion
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Provenance names the signal a suggestion was derived from
type Provenance string

const (
	ProvenanceObject Provenance = "object-based"
	ProvenanceColor  Provenance = "color-based"
)

// ColorProfile is the dominant color of an image plus its quadrant palette
type ColorProfile struct {
	Dominant string   `json:"dominant"`
	Palette  []string `json:"palette"`
}

// Record is a single design suggestion for one uploaded image
type Record struct {
	Filename        string        `json:"filename"`
	DetectedObjects []Detection   `json:"detectedObjects"`
	ColorProfile    *ColorProfile `json:"colorProfile,omitempty"`
	HarmonySet      []string      `json:"harmonySet,omitempty"`
	Text            string        `json:"suggestion"`
	Confidence      Confidence    `json:"confidence"`
	Provenance      Provenance    `json:"provenance"`
	Category        string        `json:"type,omitempty"`
}

// Warning describes a degraded analysis for one file
type Warning struct {
	Filename   string `json:"filename"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// Image is one uploaded file handed to the pipeline
type Image struct {
	Filename string
	Data     []byte
}

// Response is the aggregated result of analyzing a batch of images
type Response struct {
	Message     string    `json:"message"`
	Suggestions []Record  `json:"suggestions"`
	Warnings    []Warning `json:"warnings,omitempty"`
}
