package deepface

import "errors"

var (
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrEmptyImage          = errors.New("empty image")
)
