package deepface

// AnalyzeRequest for POST /analyze
type AnalyzeRequest struct {
	Img              string   `json:"img"`     // data URI, base64 encoded
	Actions          []string `json:"actions"` // "age", "gender", "emotion", "race"
	Detector         string   `json:"detector_backend,omitempty"`
	EnforceDetection bool     `json:"enforce_detection"`
}

// AnalyzeResponse from POST /analyze
type AnalyzeResponse struct {
	Results []AnalyzeResult `json:"results"`
}

// AnalyzeResult is one detected face. Gender and emotion scores are percentages.
type AnalyzeResult struct {
	Region          FacialArea         `json:"region"`
	FaceConfidence  float64            `json:"face_confidence"`
	Age             float64            `json:"age"`
	Gender          map[string]float64 `json:"gender"`
	DominantGender  string             `json:"dominant_gender"`
	Emotion         map[string]float64 `json:"emotion"`
	DominantEmotion string             `json:"dominant_emotion"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}
