package arcgis

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote metadata reads. Callers use errors.Is.
var (
	ErrHTTPStatus     = errors.New("unexpected http status")
	ErrMalformed      = errors.New("malformed response body")
	ErrNoDrawingInfo  = errors.New("drawing info not available")
	ErrNoRenderer     = errors.New("renderer not available")
	ErrNoUniqueValues = errors.New("unique value infos not available")
	ErrService        = errors.New("service returned an error")
)

// ServiceError is the {"error": {...}} envelope ArcGIS returns with a 200.
type ServiceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("arcgis error %d: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return ErrService
}
