package metadata

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lite-ml/tfmeta/internal/schema"
)

// CalibrationParameter holds the sigmoid parameters for one output class.
//
// Score calibration makes scores across classes comparable, so that a common
// threshold can be used for all output classes. For each index in the output
// tensor a runtime applies:
//
//	f(x) = scale / (1 + e^-(slope * g(x) + offset))  if x > min_score, or if
//	       no min_score has been specified
//	f(x) = default_score                             otherwise
//
// Scale, Slope and Offset must be set together; MinScore is optional. This
// module only validates and persists the parameters, it never evaluates them.
type CalibrationParameter struct {
	Scale    *float32
	Slope    *float32
	Offset   *float32
	MinScore *float32
}

// ScoreCalibration holds score calibration parameters for a classification
// output. A nil entry in Parameters means the class at that index has no
// calibration.
type ScoreCalibration struct {
	Transformation schema.ScoreTransformationType
	Parameters     []*CalibrationParameter
	DefaultScore   float32
}

// exportCalibrationFile writes calibration parameters to path, one
// comma-separated "scale,slope,offset[,min_score]" record per present entry.
// Absent entries emit no line, so the file may hold fewer lines than there
// are classes.
func exportCalibrationFile(path string, params []*CalibrationParameter) error {
	lines := make([]string, 0, len(params))
	for i, p := range params {
		if p == nil {
			continue
		}
		if p.Scale == nil || p.Slope == nil || p.Offset == nil {
			return fmt.Errorf("calibration parameter %d: %w", i, ErrIncompleteCalibration)
		}
		line := formatFloat(*p.Scale) + "," + formatFloat(*p.Slope) + "," + formatFloat(*p.Offset)
		if p.MinScore != nil {
			line += "," + formatFloat(*p.MinScore)
		}
		lines = append(lines, line)
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write calibration file: %w", err)
	}
	return nil
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
