package rekognition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"
)

const (
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeInvalidParameter = "InvalidParameterException"
	errCodeInvalidImage     = "InvalidImageFormatException"
	errCodeUnrecognizedKey  = "UnrecognizedClientException"
)

// RekognitionAPI is the subset of the AWS Rekognition client used here
type RekognitionAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
	ListCollections(ctx context.Context, params *rekognition.ListCollectionsInput, optFns ...func(*rekognition.Options)) (*rekognition.ListCollectionsOutput, error)
}

// Client wraps the AWS Rekognition client
type Client struct {
	rekognition RekognitionAPI
	config      Config
}

// NewClient creates a new Rekognition client with the provided configuration
// It uses the AWS default credential chain to authenticate
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	// Load AWS SDK config using default credential chain
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewClientWithAPI(rekognition.NewFromConfig(awsCfg), cfg), nil
}

// NewClientWithAPI wraps an existing Rekognition API implementation
func NewClientWithAPI(api RekognitionAPI, cfg Config) *Client {
	return &Client{
		rekognition: api,
		config:      cfg,
	}
}

// CheckAccess issues a minimal authenticated call to verify credentials and region
func (c *Client) CheckAccess(ctx context.Context) error {
	_, err := c.rekognition.ListCollections(ctx, &rekognition.ListCollectionsInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeAccessDenied, errCodeUnrecognizedKey:
				return fmt.Errorf("check access: %w", ErrInvalidCredentials)
			}
		}
		return fmt.Errorf("check access: %w", err)
	}
	return nil
}

// isNoFaceError reports whether Rekognition rejected the image because it holds no usable face
func isNoFaceError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == errCodeInvalidParameter &&
		strings.Contains(strings.ToLower(apiErr.ErrorMessage()), "face")
}

// parseDetectError classifies errors returned by DetectFaces
func parseDetectError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeAccessDenied, errCodeUnrecognizedKey:
			return fmt.Errorf("detect faces: %w", ErrInvalidCredentials)
		case errCodeInvalidImage:
			return fmt.Errorf("detect faces: %w: %s", ErrInvalidImage, apiErr.ErrorMessage())
		}
	}
	return fmt.Errorf("detect faces: %w", err)
}
