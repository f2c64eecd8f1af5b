// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// ErrConfig marks errors that abort a whole run instead of a single
// document. Check with errors.Is.
var ErrConfig = errors.New("configuration error")

// ErrUnknownMethod is returned for a parse method other than auto, txt, or ocr.
var ErrUnknownMethod = configError("unknown parse method")

// ErrNeedModelList is returned when a document has no cached model records
// and inference is not permitted.
var ErrNeedModelList = configError("need model list input")

type wrappedConfigError struct{ msg string }

func configError(msg string) error { return &wrappedConfigError{msg: msg} }

func (e *wrappedConfigError) Error() string { return e.msg }

func (e *wrappedConfigError) Unwrap() error { return ErrConfig }
