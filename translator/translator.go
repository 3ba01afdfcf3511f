// Package translator converts GLSL ES 3.0 / WebGL2 shader sources to the
// desktop GLSL dialect of the running context.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
	"github.com/richinsley/twinscreen/gpu"
)

var (
	shared     *gst.ShaderTranslator
	sharedErr  error
	sharedOnce sync.Once
)

// GetTranslator returns the process-wide translator, creating it on first use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = gst.NewShaderTranslator(context.Background())
	})
	return shared, sharedErr
}

// Translator satisfies resource.SourceTranslator.
type Translator struct {
	glsl330 bool
}

// New picks the output dialect from the negotiated context version.
func New(major, minor int) *Translator {
	return &Translator{glsl330: major < 4 || (major == 4 && minor < 1)}
}

func (t *Translator) Translate(stage gpu.Stage, source string) (string, map[string]string, error) {
	xl, err := GetTranslator()
	if err != nil {
		return "", nil, fmt.Errorf("failed to start shader translator: %w", err)
	}
	outputFormat := gst.OutputFormatGLSL410
	if t.glsl330 {
		outputFormat = gst.OutputFormatGLSL330
	}
	res, err := xl.TranslateShader(source, stage.String(), gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return "", nil, fmt.Errorf("%s shader translation failed: %w", stage, err)
	}
	names := make(map[string]string, len(res.Variables))
	for name, v := range res.Variables {
		names[name] = v.MappedName
	}
	return res.Code, names, nil
}
