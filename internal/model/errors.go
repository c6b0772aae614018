package model

import "errors"

var (
	ErrLoad          = errors.New("model load failed")
	ErrDecode        = errors.New("image is not valid JPEG data")
	ErrModelNotReady = errors.New("model is not loaded")
	ErrInference     = errors.New("inference failed")
	ErrBusy          = errors.New("a classification is already in progress")
)
