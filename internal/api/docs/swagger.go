package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// AnalysisResponse is a persisted selfie analysis
type AnalysisResponse struct {
	ID                  string             `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UID                 string             `json:"uid" example:"2f1c6d0e-7a55-4d1b-9a43-6c1f3b2a9e10"`
	ImageURL            string             `json:"image_url,omitempty" example:"/uploads/2f1c6d0e/550e8400.jpg"`
	FaceDetected        bool               `json:"face_detected" example:"true"`
	EstimatedAge        int                `json:"estimated_age,omitempty" example:"27"`
	Gender              string             `json:"gender" example:"female"`
	GenderSource        string             `json:"gender_source" example:"detector"`
	DominantEmotion     string             `json:"dominant_emotion" example:"happy"`
	EmotionSource       string             `json:"emotion_source" example:"heuristic"`
	Expressions         map[string]float64 `json:"expressions,omitempty"`
	Brightness          float64            `json:"brightness" example:"0.62"`
	BackgroundClutter   float64            `json:"background_clutter" example:"0.18"`
	InteractionDuration int64              `json:"interaction_duration" example:"4200"`
	RetakeCount         int                `json:"retake_count" example:"1"`
	HourOfDay           int                `json:"hour_of_day" example:"14"`
	CreatedAt           string             `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// AnalyzeSelfieResponse is returned by POST /api/selfie/analyze
type AnalyzeSelfieResponse struct {
	UID         string           `json:"uid" example:"2f1c6d0e-7a55-4d1b-9a43-6c1f3b2a9e10"`
	NewUser     bool             `json:"new_user" example:"true"`
	SelfieCount int              `json:"selfie_count" example:"1"`
	Analysis    AnalysisResponse `json:"analysis"`
}

// EventResponse acknowledges a stored event
type EventResponse struct {
	ID        string `json:"id" example:"7d1f3b2a-9e10-4d1b-9a43-6c1f2f1c6d0e"`
	Timestamp string `json:"timestamp" example:"2024-01-01T00:00:00Z"`
}

// MetricsResponse holds the image scores
type MetricsResponse struct {
	Brightness        float64 `json:"brightness" example:"0.62"`
	BackgroundClutter float64 `json:"background_clutter" example:"0.18"`
}

// ClassifyResponse holds the heuristic labels
type ClassifyResponse struct {
	Gender          string  `json:"gender" example:"female"`
	DominantEmotion string  `json:"dominant_emotion" example:"happy"`
	GenderScore     float64 `json:"gender_score" example:"2.5"`
	EmotionRule     string  `json:"emotion_rule" example:"bright_and_quick"`
}

// UserSummaryResponse is a row of the user listing
type UserSummaryResponse struct {
	UID            string `json:"uid" example:"2f1c6d0e-7a55-4d1b-9a43-6c1f3b2a9e10"`
	CreatedAt      string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	LastSeen       string `json:"last_seen" example:"2024-01-02T00:00:00Z"`
	SelfieCount    int    `json:"selfie_count" example:"3"`
	LastEmotion    string `json:"last_emotion,omitempty" example:"happy"`
	LastAnalysisAt string `json:"last_analysis_at,omitempty" example:"2024-01-02T00:00:00Z"`
}

// PaginationResponse contains pagination information
type PaginationResponse struct {
	Count  int `json:"count" example:"20"`
	Limit  int `json:"limit" example:"100"`
	Offset int `json:"offset" example:"0"`
}

// UserListResponse wraps the user listing
type UserListResponse struct {
	Data       []UserSummaryResponse `json:"data"`
	Pagination PaginationResponse    `json:"pagination"`
}

// UserDetailResponse aggregates a user with analyses and events
type UserDetailResponse struct {
	User     UserSummaryResponse `json:"user"`
	Analyses []AnalysisResponse  `json:"analyses"`
	Events   []EventResponse     `json:"events"`
}

// AnalyticsResponse aggregates the filtered analyses
type AnalyticsResponse struct {
	TotalAnalyses     int64            `json:"total_analyses" example:"120"`
	AverageAge        float64          `json:"avg_age" example:"27.4"`
	EmotionBreakdown  map[string]int64 `json:"emotion_breakdown"`
	GenderBreakdown   map[string]int64 `json:"gender_breakdown"`
	AverageBrightness float64          `json:"avg_brightness" example:"0.55"`
	AverageClutter    float64          `json:"avg_clutter" example:"0.21"`
}

// SimilarAnalysisResponse pairs an analysis with its distance to the reference
type SimilarAnalysisResponse struct {
	Analysis AnalysisResponse `json:"analysis"`
	Distance float64          `json:"distance" example:"0.0123"`
}

// SimilarListResponse is returned by the similar-mood search
type SimilarListResponse struct {
	ReferenceID string                    `json:"reference_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Data        []SimilarAnalysisResponse `json:"data"`
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"0.1.0"`
}

// ReadyResponse reports readiness per dependency
type ReadyResponse struct {
	Status   string `json:"status" example:"ready"`
	Database string `json:"database" example:"ok"`
	Detector string `json:"detector" example:"ready"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

var (
	errBadRequest   = response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request")
	errUnauthorized = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing admin token"}, "401", "Unauthorized")
	errForbidden    = response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Access denied"}, "403", "Forbidden")
	errInternal     = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	errRateLimit    = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errInvalidImage = response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity")
	errTooLarge     = response.New(ErrorResponse{Code: "IMAGE_TOO_LARGE", Message: "Image exceeds the maximum allowed size"}, "413", "Payload Too Large")
)

var adminSecurity = endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}})

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "SelfieLens API",
		Version:     "v1.0.0",
		Description: "Selfie analysis: image metrics, heuristic and detector-based labels, and an admin dashboard",
		Host:        "localhost:3000",
		Path:        "/api",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /api/selfie/analyze
		endpoint.New(
			endpoint.POST,
			"/selfie/analyze",
			endpoint.WithTags("Selfie"),
			endpoint.WithSummary("Analyze a selfie"),
			endpoint.WithDescription("Multipart form: image (jpeg, png or webp), optional uid, interaction_duration_ms, retake_count, hour_of_day (defaults to server hour), device_platform, device_os, device_browser and device_info (JSON object). Without uid a new user is created."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalyzeSelfieResponse{}, "201", "Analysis stored for a new user"),
				response.New(AnalyzeSelfieResponse{}, "200", "Analysis stored for an existing user"),
			}),
			endpoint.WithErrors([]response.Response{
				errBadRequest,
				response.New(ErrorResponse{Code: "USER_NOT_FOUND", Message: "User not found"}, "404", "Not Found"),
				errTooLarge,
				errInvalidImage,
				errRateLimit,
				errInternal,
			}),
		),

		// POST /api/selfie/event
		endpoint.New(
			endpoint.POST,
			"/selfie/event",
			endpoint.WithTags("Selfie"),
			endpoint.WithSummary("Record a client event"),
			endpoint.WithDescription("JSON body {uid, type, target, metadata}. uid and type are required; the timestamp is set by the server."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EventResponse{}, "201", "Event stored"),
			}),
			endpoint.WithErrors([]response.Response{
				errBadRequest,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "uid is required"}, "422", "Unprocessable Entity"),
				errRateLimit,
				errInternal,
			}),
		),

		// POST /api/analyze/metrics
		endpoint.New(
			endpoint.POST,
			"/analyze/metrics",
			endpoint.WithTags("Analyze"),
			endpoint.WithSummary("Compute image metrics"),
			endpoint.WithDescription("Returns brightness and background clutter in [0,1] for the uploaded image field. Nothing is stored."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MetricsResponse{}, "200", "Metrics computed"),
			}),
			endpoint.WithErrors([]response.Response{errTooLarge, errInvalidImage, errInternal}),
		),

		// POST /api/analyze/classify
		endpoint.New(
			endpoint.POST,
			"/analyze/classify",
			endpoint.WithTags("Analyze"),
			endpoint.WithSummary("Classify signals"),
			endpoint.WithDescription("JSON body {brightness, background_clutter, interaction_duration_ms, hour_of_day, retake_count, device_platform}. Returns the heuristic gender and emotion labels."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ClassifyResponse{}, "200", "Labels computed"),
			}),
			endpoint.WithErrors([]response.Response{
				errBadRequest,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "interaction_duration_ms and retake_count must not be negative"}, "422", "Unprocessable Entity"),
			}),
		),

		// GET /api/admin/users
		endpoint.New(
			endpoint.GET,
			"/admin/users",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("List users"),
			endpoint.WithDescription("Users newest first with selfie count, last emotion and last analysis date"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Page size (1-500, default 100)")),
				parameter.IntParam("offset", parameter.Query, parameter.WithDescription("Rows to skip")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UserListResponse{}, "200", "Users listed"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errInternal}),
			adminSecurity,
		),

		// GET /api/admin/users/:uid
		endpoint.New(
			endpoint.GET,
			"/admin/users/{uid}",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Get user detail"),
			endpoint.WithDescription("User with analyses newest first and the last 50 events"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("uid", parameter.Path, parameter.WithDescription("User identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UserDetailResponse{}, "200", "User found"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				errForbidden,
				response.New(ErrorResponse{Code: "USER_NOT_FOUND", Message: "User not found"}, "404", "Not Found"),
				errInternal,
			}),
			adminSecurity,
		),

		// GET /api/admin/analytics
		endpoint.New(
			endpoint.GET,
			"/admin/analytics",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Aggregate analytics"),
			endpoint.WithDescription("Totals, averages and label breakdowns over the filtered analyses. Results are cached; fresh=true recomputes."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("ageRange", parameter.Query, parameter.WithDescription("Estimated age range, e.g. 18-30")),
				parameter.StrParam("emotion", parameter.Query, parameter.WithDescription("Dominant emotion label")),
				parameter.IntParam("dateRange", parameter.Query, parameter.WithDescription("Days back from now")),
				parameter.StrParam("fresh", parameter.Query, parameter.WithDescription("true to bypass and refresh the cache")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AnalyticsResponse{}, "200", "Analytics computed"),
			}),
			endpoint.WithErrors([]response.Response{errBadRequest, errUnauthorized, errForbidden, errInternal}),
			adminSecurity,
		),

		// GET /api/admin/analyses/:id/similar
		endpoint.New(
			endpoint.GET,
			"/admin/analyses/{id}/similar",
			endpoint.WithTags("Admin"),
			endpoint.WithSummary("Find analyses with a similar mood"),
			endpoint.WithDescription("Nearest analyses by cosine distance between expression vectors"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Reference analysis ID")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Results (1-50, default 5)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SimilarListResponse{}, "200", "Similar analyses"),
			}),
			endpoint.WithErrors([]response.Response{
				errBadRequest,
				errUnauthorized,
				errForbidden,
				response.New(ErrorResponse{Code: "ANALYSIS_NOT_FOUND", Message: "Analysis not found"}, "404", "Not Found"),
				errInternal,
			}),
			adminSecurity,
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness"),
			endpoint.WithDescription("503 when the database is unreachable. An unavailable detector is reported but does not fail readiness."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ReadyResponse{}, "200", "Ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ReadyResponse{Status: "unavailable", Database: "unreachable"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
