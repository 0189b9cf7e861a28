//go:build opencv

package stage

import (
	"fmt"
	"image"

	"github.com/rm-hull/xray-enhancer/internal/xray"
	"gocv.io/x/gocv"
)

const openCVAvailable = true

// cvStage runs one OpenCV primitive on the 8-bit plane.
type cvStage struct {
	kind  Kind
	apply func(src gocv.Mat, dst *gocv.Mat) error
}

func (s *cvStage) Name() string {
	return s.kind.String()
}

func (s *cvStage) Process(img *xray.Image) (*xray.Image, error) {
	if img.Empty() {
		return nil, xray.ErrEmptyImage
	}

	src, err := gocv.ImageGrayToMatGray(img.Gray())
	if err != nil {
		return nil, fmt.Errorf("failed to create source Mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := s.apply(src, &dst); err != nil {
		return nil, fmt.Errorf("opencv %s failed: %w", s.kind, err)
	}

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert Mat to image: %w", err)
	}
	gray, ok := out.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected Mat image type %T", out)
	}
	return xray.NormalizeGray(gray), nil
}

func newOpenCV(k Kind) (xray.Stage, error) {
	s := &cvStage{kind: k}

	switch k {
	case Mean:
		s.apply = func(src gocv.Mat, dst *gocv.Mat) error {
			return gocv.Blur(src, dst, image.Pt(3, 3))
		}
	case Median:
		s.apply = func(src gocv.Mat, dst *gocv.Mat) error {
			return gocv.MedianBlur(src, dst, 3)
		}
	case Gaussian:
		s.apply = func(src gocv.Mat, dst *gocv.Mat) error {
			return gocv.GaussianBlur(src, dst, image.Pt(5, 5), 1, 1, gocv.BorderDefault)
		}
	case Bilateral:
		s.apply = func(src gocv.Mat, dst *gocv.Mat) error {
			return gocv.BilateralFilter(src, dst, 9, 75, 75)
		}
	case HistogramEqualization:
		s.apply = func(src gocv.Mat, dst *gocv.Mat) error {
			return gocv.EqualizeHist(src, dst)
		}
	case CLAHE:
		s.apply = func(src gocv.Mat, dst *gocv.Mat) error {
			clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
			defer clahe.Close()
			return clahe.Apply(src, dst)
		}
	case UnsharpMask:
		s.apply = func(src gocv.Mat, dst *gocv.Mat) error {
			blurred := gocv.NewMat()
			defer blurred.Close()
			if err := gocv.GaussianBlur(src, &blurred, image.Pt(5, 5), 1, 1, gocv.BorderDefault); err != nil {
				return err
			}
			return gocv.AddWeighted(src, 1.5, blurred, -0.5, 0, dst)
		}
	default:
		return nil, fmt.Errorf("unknown filter %s", k)
	}

	return s, nil
}
