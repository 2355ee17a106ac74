package rekognition

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
)

// mockRekognitionAPI is a mock implementation of RekognitionAPI interface for testing
type mockRekognitionAPI struct {
	detectFacesFunc     func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
	listCollectionsFunc func(ctx context.Context, params *rekognition.ListCollectionsInput, optFns ...func(*rekognition.Options)) (*rekognition.ListCollectionsOutput, error)
}

func (m *mockRekognitionAPI) DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	if m.detectFacesFunc != nil {
		return m.detectFacesFunc(ctx, params, optFns...)
	}
	return &rekognition.DetectFacesOutput{}, nil
}

func (m *mockRekognitionAPI) ListCollections(ctx context.Context, params *rekognition.ListCollectionsInput, optFns ...func(*rekognition.Options)) (*rekognition.ListCollectionsOutput, error) {
	if m.listCollectionsFunc != nil {
		return m.listCollectionsFunc(ctx, params, optFns...)
	}
	return &rekognition.ListCollectionsOutput{}, nil
}

var _ RekognitionAPI = (*mockRekognitionAPI)(nil)
