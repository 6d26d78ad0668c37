package kernel

import "fmt"

// Status codes reported by the native kernel. Codes are propagated verbatim;
// the names exist for log output only.
const (
	CodeOK                  int32 = 0
	CodeInvalidArgument     int32 = 1
	CodeShapeNotFound       int32 = 2
	CodeFeatureNotSupported int32 = 3
	CodeOCCTException       int32 = 4
	CodeBooleanFailed       int32 = 5
	CodeDeltaFailed         int32 = 6
	CodeExportFailed        int32 = 7
)

var codeNames = map[int32]string{
	CodeOK:                  "OK",
	CodeInvalidArgument:     "INVALID_ARGUMENT",
	CodeShapeNotFound:       "SHAPE_NOT_FOUND",
	CodeFeatureNotSupported: "FEATURE_NOT_SUPPORTED",
	CodeOCCTException:       "OCCT_EXCEPTION",
	CodeBooleanFailed:       "BOOLEAN_FAILED",
	CodeDeltaFailed:         "DELTA_FAILED",
	CodeExportFailed:        "EXPORT_FAILED",
}

// CodeName returns the symbolic name of a known status code.
func CodeName(code int32) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", code)
}
