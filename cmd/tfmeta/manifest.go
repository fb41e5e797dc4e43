package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lite-ml/tfmeta/metadata"
)

// manifest is the YAML description of the metadata to attach to a model.
type manifest struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Inputs      []tensorSpec `yaml:"inputs"`
	Outputs     []tensorSpec `yaml:"outputs"`
}

// tensorSpec describes one input or output tensor. Kind selects the
// descriptor shape: "feature" (default), "image" (inputs only) or
// "classification" (outputs only).
type tensorSpec struct {
	Kind        string `yaml:"kind"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	TensorName  string `yaml:"tensor_name"`

	// Image inputs.
	NormMean   []float32 `yaml:"norm_mean"`
	NormStd    []float32 `yaml:"norm_std"`
	ColorSpace string    `yaml:"color_space"`

	// Classification outputs.
	Labels      []labelSpec      `yaml:"labels"`
	Calibration *calibrationSpec `yaml:"calibration"`
}

// labelSpec is one label list, either inline names or a file to read them
// from.
type labelSpec struct {
	Names    []string `yaml:"names"`
	File     string   `yaml:"file"`
	Locale   string   `yaml:"locale"`
	Filename string   `yaml:"filename"`
}

type calibrationSpec struct {
	Transformation string                  `yaml:"transformation"`
	DefaultScore   float32                 `yaml:"default_score"`
	Parameters     []*calibrationParamSpec `yaml:"parameters"`
}

// calibrationParamSpec holds one class's calibration tuple; a null list
// entry means the class has no calibration.
type calibrationParamSpec struct {
	Scale    *float32 `yaml:"scale"`
	Slope    *float32 `yaml:"slope"`
	Offset   *float32 `yaml:"offset"`
	MinScore *float32 `yaml:"min_score"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// apply drives the writer with the manifest's content. The writer records
// the first configuration error itself; apply only fails on values the
// writer cannot express.
func (m *manifest) apply(w *metadata.Writer) error {
	if m.Name != "" || m.Description != "" {
		w.SetGeneralInfo(m.Name, m.Description)
	}

	for i, in := range m.Inputs {
		switch in.Kind {
		case "", "feature":
			w.AddFeatureInput(metadata.FeatureTensor{
				Name:        in.Name,
				Description: in.Description,
				TensorName:  in.TensorName,
			})
		case "image":
			colorSpace, err := parseColorSpace(in.ColorSpace)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			w.AddImageInput(metadata.ImageTensor{
				Name:        in.Name,
				Description: in.Description,
				TensorName:  in.TensorName,
				NormMean:    in.NormMean,
				NormStd:     in.NormStd,
				ColorSpace:  colorSpace,
			})
		default:
			return fmt.Errorf("input %d: unknown kind %q", i, in.Kind)
		}
	}

	for i, out := range m.Outputs {
		switch out.Kind {
		case "", "feature":
			w.AddFeatureOutput(metadata.FeatureTensor{
				Name:        out.Name,
				Description: out.Description,
				TensorName:  out.TensorName,
			})
		case "classification":
			labels, err := buildLabels(out.Labels)
			if err != nil {
				return fmt.Errorf("output %d: %w", i, err)
			}
			calibration, err := buildCalibration(out.Calibration)
			if err != nil {
				return fmt.Errorf("output %d: %w", i, err)
			}
			w.AddClassificationOutput(metadata.ClassificationTensor{
				Name:        out.Name,
				Description: out.Description,
				TensorName:  out.TensorName,
				Labels:      labels,
				Calibration: calibration,
			})
		default:
			return fmt.Errorf("output %d: unknown kind %q", i, out.Kind)
		}
	}

	return nil
}

func buildLabels(specs []labelSpec) (*metadata.Labels, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	labels := metadata.NewLabels()
	for _, spec := range specs {
		if spec.File != "" {
			labels.AddFromFile(spec.File, spec.Locale, spec.Filename)
		} else {
			labels.Add(spec.Names, spec.Locale, spec.Filename)
		}
	}
	return labels, nil
}

func buildCalibration(spec *calibrationSpec) (*metadata.ScoreCalibration, error) {
	if spec == nil {
		return nil, nil
	}
	transformation, err := parseTransformation(spec.Transformation)
	if err != nil {
		return nil, err
	}
	calibration := &metadata.ScoreCalibration{
		Transformation: transformation,
		DefaultScore:   spec.DefaultScore,
	}
	for _, p := range spec.Parameters {
		if p == nil {
			calibration.Parameters = append(calibration.Parameters, nil)
			continue
		}
		calibration.Parameters = append(calibration.Parameters, &metadata.CalibrationParameter{
			Scale:    p.Scale,
			Slope:    p.Slope,
			Offset:   p.Offset,
			MinScore: p.MinScore,
		})
	}
	return calibration, nil
}

func parseColorSpace(s string) (metadata.ColorSpaceType, error) {
	switch s {
	case "", "RGB":
		return metadata.ColorSpaceRGB, nil
	case "GRAYSCALE":
		return metadata.ColorSpaceGrayscale, nil
	default:
		return 0, fmt.Errorf("unknown color space %q", s)
	}
}

func parseTransformation(s string) (metadata.ScoreTransformationType, error) {
	switch s {
	case "", "IDENTITY":
		return metadata.ScoreTransformationIdentity, nil
	case "LOG":
		return metadata.ScoreTransformationLog, nil
	case "INVERSE_LOGISTIC":
		return metadata.ScoreTransformationInverseLogistic, nil
	default:
		return 0, fmt.Errorf("unknown score transformation %q", s)
	}
}
